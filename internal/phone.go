package internal

import "strings"

// NormalizePhone turns an inbound sender or caller id into a patient key by
// stripping the country code prefix and surrounding whitespace.
func NormalizePhone(id, countryCode string) string {
	id = strings.TrimSpace(id)
	if countryCode != "" {
		id = strings.TrimPrefix(id, countryCode)
	}
	return id
}

// InternationalPhone prefixes a patient key with the country code for
// outbound delivery. Ids that already carry a leading "+" are left alone.
func InternationalPhone(id, countryCode string) string {
	if strings.HasPrefix(id, "+") {
		return id
	}
	return countryCode + id
}

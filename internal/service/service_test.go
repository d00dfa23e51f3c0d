package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/storage"
	"github.com/neshyamekala/Medicall/internal/worker"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func at(hhmm string) time.Time {
	t, _ := time.ParseInLocation("2006-01-02 15:04:05", "2026-03-10 "+hhmm+":07", ist)
	return t
}

func TestRenderReminder(t *testing.T) {
	m := internal.Medicine{Name: "Metformin", Dosage: "1 Tablet"}
	assert.Equal(t, "Reminder: Take 1 Tablet of Metformin. Reply TAKEN or SKIPPED.", RenderReminder("en", m))
	assert.Equal(t, "Reminder: Metformin की 1 Tablet लें। जवाब दें: TAKEN या SKIPPED", RenderReminder("hi", m))
	assert.Equal(t, RenderReminder("en", m), RenderReminder("fr", m), "unknown language falls back to English")
	assert.Equal(t, RenderReminder("en", m), RenderReminder("", m))
}

func TestScanner_DispatchesOnlyMedicinesDueThisMinute(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"},
		internal.Medicine{ID: "a1", Name: "Metformin", Time: "08:30"},
		internal.Medicine{ID: "a2", Name: "Aspirin", Time: "08:31"},
	)
	store.put(internal.Patient{ID: "2", Name: "B"},
		internal.Medicine{ID: "b1", Name: "Insulin", Time: "08:30"},
		internal.Medicine{ID: "b2", Name: "Statin", Time: "20:30"},
	)
	d := &recordingDispatcher{}
	s := NewScanner(store, store, d, ist, internal.NopLogger())

	n := s.ScanAt(context.Background(), at("08:30"))
	assert.Equal(t, 2, n)
	ids := []string{}
	for _, m := range d.got {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"a1", "b1"}, ids)
}

func TestScanner_UsesConfiguredZone(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"}, internal.Medicine{ID: "a1", Time: "08:30"})
	d := &recordingDispatcher{}
	s := NewScanner(store, store, d, ist, internal.NopLogger())

	// 03:00 UTC is 08:30 IST.
	n := s.ScanAt(context.Background(), time.Date(2026, 3, 10, 3, 0, 40, 0, time.UTC))
	assert.Equal(t, 1, n)
}

func TestScanner_SameMinuteScannedOnce(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"}, internal.Medicine{ID: "a1", Time: "08:30"})
	d := &recordingDispatcher{}
	s := NewScanner(store, store, d, ist, internal.NopLogger())

	assert.Equal(t, 1, s.ScanAt(context.Background(), at("08:30")))
	assert.Equal(t, 0, s.ScanAt(context.Background(), at("08:30").Add(40*time.Second)))
	assert.Equal(t, 0, s.ScanAt(context.Background(), at("08:31")))
	assert.Len(t, d.got, 1)
}

func TestScanner_MissedMinuteIsNotCaughtUp(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"}, internal.Medicine{ID: "a1", Time: "08:30"})
	d := &recordingDispatcher{}
	s := NewScanner(store, store, d, ist, internal.NopLogger())

	s.ScanAt(context.Background(), at("08:29"))
	s.ScanAt(context.Background(), at("08:32"))
	assert.Empty(t, d.got)
}

func TestScanner_BadPatientDoesNotAbortSweep(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"}, internal.Medicine{ID: "a1", Time: "08:30"})
	store.put(internal.Patient{ID: "2", Name: "B"}, internal.Medicine{ID: "b1", Time: "08:30"})
	store.ListMedicinesErr["1"] = errStoreDown
	d := &recordingDispatcher{}
	s := NewScanner(store, store, d, ist, internal.NopLogger())

	assert.Equal(t, 1, s.ScanAt(context.Background(), at("08:30")))
	require.Len(t, d.got, 1)
	assert.Equal(t, "b1", d.got[0].ID)
}

func TestScanner_ListFailureIsContained(t *testing.T) {
	store := newMemStore()
	store.ListPatientsErr = errStoreDown
	s := NewScanner(store, store, &recordingDispatcher{}, ist, internal.NopLogger())
	assert.Equal(t, 0, s.ScanAt(context.Background(), at("08:30")))
}

func TestDispatcher_ResetsStatusAndSendsBothChannels(t *testing.T) {
	for _, prior := range []internal.ResponseStatus{internal.StatusTaken, internal.StatusSkipped, internal.StatusInvalidResponse, internal.StatusPending} {
		t.Run(string(prior), func(t *testing.T) {
			store := newMemStore()
			p := internal.Patient{ID: "9876543210", Name: "Suresh", Language: "ta", ResponseStatus: prior}
			store.put(p)
			ch := &recordingChannel{}
			pool := &inlinePool{}
			d := NewDispatcher(store, ch, pool, internal.NopLogger())

			m := internal.Medicine{Name: "Metformin", Dosage: "1 Tablet", Time: "08:30"}
			d.Dispatch(context.Background(), p, m)

			assert.Equal(t, internal.StatusPending, store.get(p.ID).ResponseStatus)
			want := RenderReminder("ta", m)
			require.Len(t, ch.Texts(), 1)
			assert.Equal(t, sentText{p.ID, want}, ch.Texts()[0])
			require.Len(t, ch.Calls(), 1)
			assert.Equal(t, placedCall{p.ID, want, "ta"}, ch.Calls()[0])
		})
	}
}

func TestDispatcher_OneChannelFailingDoesNotStopTheOther(t *testing.T) {
	store := newMemStore()
	p := internal.Patient{ID: "1", Name: "A", Language: "en"}
	store.put(p)
	ch := &recordingChannel{TextErr: errors.New("sms gateway down")}
	pool := &inlinePool{}
	d := NewDispatcher(store, ch, pool, internal.NopLogger())

	d.Dispatch(context.Background(), p, internal.Medicine{Name: "X", Dosage: "1"})
	assert.Empty(t, ch.Texts())
	assert.Len(t, ch.Calls(), 1)
	assert.Len(t, pool.names, 2)
	assert.Len(t, pool.errors, 1)
}

func TestDispatcher_StoreFailureStillSends(t *testing.T) {
	store := newMemStore()
	store.ResetErr = errStoreDown
	p := internal.Patient{ID: "1", Name: "A", Language: "en"}
	store.put(p)
	ch := &recordingChannel{}
	d := NewDispatcher(store, ch, &inlinePool{}, internal.NopLogger())

	d.Dispatch(context.Background(), p, internal.Medicine{Name: "X", Dosage: "1"})
	assert.Len(t, ch.Texts(), 1)
	assert.Len(t, ch.Calls(), 1)
}

func TestDispatcher_DoesNotWaitForDelivery(t *testing.T) {
	store := newMemStore()
	p := internal.Patient{ID: "1", Name: "A", Language: "en"}
	store.put(p)

	release := make(chan struct{})
	slow := &blockingChannel{release: release}
	pool := worker.NewPool(2, 10, internal.NopLogger())
	d := NewDispatcher(store, slow, pool, internal.NopLogger())

	returned := make(chan struct{})
	go func() {
		d.Dispatch(context.Background(), p, internal.Medicine{Name: "X", Dosage: "1"})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Dispatch blocked on a slow channel")
	}
	close(release)
	require.NoError(t, pool.Stop(context.Background()))
}

type blockingChannel struct{ release chan struct{} }

func (b *blockingChannel) SendText(ctx context.Context, recipient, message string) error {
	<-b.release
	return nil
}

func (b *blockingChannel) PlaceVoiceCall(ctx context.Context, recipient, spokenMessage, language string) error {
	<-b.release
	return nil
}

func TestParseTextReply(t *testing.T) {
	cases := map[string]internal.ResponseStatus{
		"taken":       internal.StatusTaken,
		"TAKEN":       internal.StatusTaken,
		" Taken ":     internal.StatusTaken,
		"skipped":     internal.StatusSkipped,
		"\tSkipped\n": internal.StatusSkipped,
		"xyz":         internal.StatusInvalidResponse,
		"":            internal.StatusInvalidResponse,
		"taken it":    internal.StatusInvalidResponse,
	}
	for body, want := range cases {
		assert.Equal(t, want, ParseTextReply(body), "body %q", body)
	}
}

func TestParseKeypress(t *testing.T) {
	assert.Equal(t, internal.StatusTaken, ParseKeypress("1"))
	for _, d := range []string{"2", "0", "9", "#", "*"} {
		assert.Equal(t, internal.StatusSkipped, ParseKeypress(d), "digit %q", d)
	}
}

func TestRecorder_TextReplyUpdatesStatus(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "9876543210", Name: "A", ResponseStatus: internal.StatusPending})
	r := NewRecorder(store, "+91", internal.NopLogger())
	fixed := time.Date(2026, 3, 10, 3, 5, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	res, err := r.RecordText(context.Background(), TextReply{SenderID: "+919876543210", Body: " taken "})
	require.NoError(t, err)
	assert.Equal(t, RecordResult{Matched: true, PatientID: "9876543210", Status: internal.StatusTaken}, res)

	p := store.get("9876543210")
	assert.Equal(t, internal.StatusTaken, p.ResponseStatus)
	require.NotNil(t, p.LastResponseTime)
	assert.Equal(t, fixed, *p.LastResponseTime)
}

func TestRecorder_KeypressUpdatesStatus(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "9876543210", Name: "A", ResponseStatus: internal.StatusPending})
	r := NewRecorder(store, "+91", internal.NopLogger())

	res, err := r.RecordKeypress(context.Background(), Keypress{Digit: "2", CallerID: "+919876543210"})
	require.NoError(t, err)
	assert.True(t, res.Matched)
	assert.Equal(t, internal.StatusSkipped, store.get("9876543210").ResponseStatus)
}

func TestRecorder_UnknownPatientIsNoOp(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A", ResponseStatus: internal.StatusPending})
	r := NewRecorder(store, "+91", internal.NopLogger())

	res, err := r.RecordText(context.Background(), TextReply{SenderID: "+910000000000", Body: "TAKEN"})
	require.NoError(t, err)
	assert.False(t, res.Matched)
	assert.Equal(t, 0, store.UpdateCalls)
	assert.Equal(t, internal.StatusPending, store.get("1").ResponseStatus)
}

func TestRecorder_ReplayAppliesSameUpdate(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A", ResponseStatus: internal.StatusPending})
	r := NewRecorder(store, "+91", internal.NopLogger())

	for i := 0; i < 2; i++ {
		res, err := r.RecordText(context.Background(), TextReply{SenderID: "1", Body: "SKIPPED"})
		require.NoError(t, err)
		assert.Equal(t, internal.StatusSkipped, res.Status)
	}
	assert.Equal(t, 2, store.UpdateCalls)
	assert.Equal(t, internal.StatusSkipped, store.get("1").ResponseStatus)
}

func TestRecorder_StoreErrorIsReturned(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"})
	store.UpdateErr = errStoreDown
	r := NewRecorder(store, "+91", internal.NopLogger())

	_, err := r.RecordKeypress(context.Background(), Keypress{Digit: "1", CallerID: "1"})
	assert.ErrorIs(t, err, errStoreDown)
}

func TestEscalator_AlertsPendingPatientsWithCaretaker(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "Asha", CaretakerID: "c1", ResponseStatus: internal.StatusPending})
	store.put(internal.Patient{ID: "2", Name: "Bala", CaretakerID: "", ResponseStatus: internal.StatusPending})
	store.put(internal.Patient{ID: "3", Name: "Chitra", CaretakerID: "c3", ResponseStatus: internal.StatusTaken})
	store.put(internal.Patient{ID: "4", Name: "Devi", CaretakerID: "c4", ResponseStatus: internal.StatusInvalidResponse})
	ch := &recordingChannel{}
	e := NewEscalator(store, ch, &inlinePool{}, internal.NopLogger())

	assert.Equal(t, 1, e.Sweep(context.Background()))
	assert.Equal(t, []sentText{{"c1", "Alert: Asha may have missed their medicine. Please check."}}, ch.Texts())
	assert.Empty(t, ch.Calls())
}

func TestEscalator_RealertsEverySweep(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "Asha", CaretakerID: "c1", ResponseStatus: internal.StatusPending})
	ch := &recordingChannel{}
	e := NewEscalator(store, ch, &inlinePool{}, internal.NopLogger())

	e.Sweep(context.Background())
	e.Sweep(context.Background())
	assert.Len(t, ch.Texts(), 2)
}

func TestEscalator_ListFailureIsContained(t *testing.T) {
	store := newMemStore()
	store.ListPatientsErr = errStoreDown
	e := NewEscalator(store, &recordingChannel{}, &inlinePool{}, internal.NopLogger())
	assert.Equal(t, 0, e.Sweep(context.Background()))
}

func TestEndToEnd_ReminderReplyAndEscalation(t *testing.T) {
	ctx := context.Background()
	setup := func() (*memStore, *recordingChannel, *Scanner, *Recorder, *Escalator) {
		store := newMemStore()
		store.put(internal.Patient{ID: "P", Name: "Priya", Language: "en", CaretakerID: "C", ResponseStatus: internal.StatusTaken},
			internal.Medicine{ID: "m1", Name: "Metformin", Dosage: "1 Tablet", Time: "08:30"})
		ch := &recordingChannel{}
		pool := &inlinePool{}
		scanner := NewScanner(store, store, NewDispatcher(store, ch, pool, internal.NopLogger()), ist, internal.NopLogger())
		return store, ch, scanner, NewRecorder(store, "+91", internal.NopLogger()), NewEscalator(store, ch, pool, internal.NopLogger())
	}

	t.Run("reply taken", func(t *testing.T) {
		store, ch, scanner, recorder, escalator := setup()
		require.Equal(t, 1, scanner.ScanAt(ctx, at("08:30")))
		assert.Equal(t, internal.StatusPending, store.get("P").ResponseStatus)
		require.Len(t, ch.Texts(), 1)
		assert.Equal(t, "Reminder: Take 1 Tablet of Metformin. Reply TAKEN or SKIPPED.", ch.Texts()[0].Message)

		_, err := recorder.RecordText(ctx, TextReply{SenderID: "P", Body: "TAKEN"})
		require.NoError(t, err)
		assert.Equal(t, internal.StatusTaken, store.get("P").ResponseStatus)

		assert.Equal(t, 0, escalator.Sweep(ctx))
		assert.Len(t, ch.Texts(), 1)
	})

	t.Run("no reply", func(t *testing.T) {
		store, ch, scanner, _, escalator := setup()
		scanner.ScanAt(ctx, at("08:30"))
		assert.Equal(t, internal.StatusPending, store.get("P").ResponseStatus)

		assert.Equal(t, 1, escalator.Sweep(ctx))
		texts := ch.Texts()
		require.Len(t, texts, 2)
		assert.Equal(t, sentText{"C", "Alert: Priya may have missed their medicine. Please check."}, texts[1])
	})
}

func TestRegisterPatient(t *testing.T) {
	store := newMemStore()
	req := &PatientRequest{Phone: "+919876543210", Name: " Suresh Kumar ", CaretakerPhone: "+919812345670"}
	require.NoError(t, ValidatePatientRequest(req))

	p, err := RegisterPatient(context.Background(), store, req, "+91")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", p.ID)
	assert.Equal(t, "Suresh Kumar", p.Name)
	assert.Equal(t, "en", p.Language)
	assert.Equal(t, "9812345670", p.CaretakerID)
	assert.Equal(t, internal.StatusPending, store.get("9876543210").ResponseStatus)

	_, err = RegisterPatient(context.Background(), store, &PatientRequest{Phone: "+91", Name: "x"}, "+91")
	assert.ErrorIs(t, err, ErrEmptyPhone)
}

func TestValidatePatientRequest(t *testing.T) {
	assert.Error(t, ValidatePatientRequest(&PatientRequest{Name: "A"}))
	assert.Error(t, ValidatePatientRequest(&PatientRequest{Phone: "1", Name: "A", Language: "fr"}))
	assert.NoError(t, ValidatePatientRequest(&PatientRequest{Phone: "1", Name: "A", Language: "ml"}))
}

func TestValidate_RejectsBlankFields(t *testing.T) {
	assert.Error(t, ValidatePatientRequest(&PatientRequest{Phone: "1", Name: "   "}))
	assert.Error(t, ValidatePatientRequest(&PatientRequest{Phone: " \t", Name: "A"}))
	assert.Error(t, ValidateMedicineRequest(&MedicineRequest{Name: "  ", Dosage: "1", Time: "08:30"}))
	assert.Error(t, ValidateMedicineRequest(&MedicineRequest{Name: "M", Dosage: "\n", Time: "08:30"}))
}

func TestValidateMedicineRequest(t *testing.T) {
	assert.NoError(t, ValidateMedicineRequest(&MedicineRequest{Name: "M", Dosage: "1", Time: "08:30"}))
	assert.NoError(t, ValidateMedicineRequest(&MedicineRequest{Name: "M", Dosage: "1", Time: "23:59"}))
	for _, bad := range []string{"8:30", "24:00", "08:60", "08:30:00", "0830", "noon", ""} {
		assert.Error(t, ValidateMedicineRequest(&MedicineRequest{Name: "M", Dosage: "1", Time: bad}), "time %q", bad)
	}
}

func TestAddMedicine(t *testing.T) {
	store := newMemStore()
	store.put(internal.Patient{ID: "1", Name: "A"})

	m, err := AddMedicine(context.Background(), store, "1", &MedicineRequest{Name: "Metformin", Dosage: "1 Tablet", Time: "08:30"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "1", m.PatientID)

	_, err = AddMedicine(context.Background(), store, "missing", &MedicineRequest{Name: "M", Dosage: "1", Time: "08:30"})
	assert.ErrorIs(t, err, storage.ErrPatientNotFound)
}

func TestEverySupportedLanguageHasATemplate(t *testing.T) {
	for _, lang := range internal.SupportedLanguages {
		assert.Contains(t, reminderTemplates, lang)
	}
}

package services

import (
	"math"
	"testing"
	"time"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitCreate_RejectsInvalidActsWithoutWriting(t *testing.T) {
	f := newFixture(t)
	p := f.patient("Amina", "F", 34)
	vt := f.visitType("Cleaning")
	now := time.Now().UnixMilli()

	cases := map[string][]ActInput{
		"no acts":       nil,
		"zero price":    {act(vt.ID, 0, "11")},
		"negative":      {act(vt.ID, -100, "11")},
		"no teeth":      {act(vt.ID, 1000)},
		"invalid tooth": {act(vt.ID, 1000, "19")},
		"unknown type":  {act(uuid.New(), 1000, "11")},
		"second bad":    {act(vt.ID, 1000, "11"), act(vt.ID, 1000)},
		"huge price":    {act(vt.ID, math.MaxInt64, "16")},
		"huge total":    {act(vt.ID, models.MaxAmount, "16"), act(vt.ID, models.MaxAmount, "17")},
		"int64 wrap":    {act(vt.ID, math.MaxInt64, "16"), act(vt.ID, math.MaxInt64, "17")},
	}
	for name, acts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.visits.Create(f.ctx, f.userID, CreateVisitInput{PatientID: &p.ID, VisitTime: now, Acts: acts})
			requireKind(t, err, KindValidation)
		})
	}

	assert.Equal(t, int64(0), f.count(&models.Visit{}))
	assert.Equal(t, int64(0), f.count(&models.VisitAct{}))
	assert.Equal(t, int64(0), f.count(&models.VisitActTooth{}))
}

func TestVisitCreate_PatientReference(t *testing.T) {
	f := newFixture(t)
	vt := f.visitType("Cleaning")
	now := time.Now().UnixMilli()
	acts := []ActInput{act(vt.ID, 1000, "11")}

	missing := uuid.New()
	_, err := f.visits.Create(f.ctx, f.userID, CreateVisitInput{PatientID: &missing, VisitTime: now, Acts: acts})
	requireKind(t, err, KindNotFound)

	_, err = f.visits.Create(f.ctx, f.userID, CreateVisitInput{VisitTime: now, Acts: acts})
	requireKind(t, err, KindValidation)

	other := f.user("other@clinic.test")
	foreign, err := f.patients.Create(f.ctx, other.ID, CreatePatientInput{Name: "Foreign", Sex: "M", Age: 50})
	require.NoError(t, err)
	_, err = f.visits.Create(f.ctx, f.userID, CreateVisitInput{PatientID: &foreign.ID, VisitTime: now, Acts: acts})
	requireKind(t, err, KindNotFound)
}

func TestVisitCreate_DetailAndTeeth(t *testing.T) {
	f := newFixture(t)
	p := f.patient("Amina", "F", 34)
	cleaning := f.visitType("Cleaning")
	filling := f.visitType("Filling")

	notes := "  sensitive gums "
	v, err := f.visits.Create(f.ctx, f.userID, CreateVisitInput{
		PatientID: &p.ID,
		VisitTime: time.Now().UnixMilli(),
		Notes:     &notes,
		Acts: []ActInput{
			act(cleaning.ID, 5000, "11", "21", "11"),
			act(filling.ID, 2500, "85"),
		},
	})
	require.NoError(t, err)

	require.NotNil(t, v.Patient)
	assert.Equal(t, "Amina", v.Patient.Name)
	require.NotNil(t, v.Notes)
	assert.Equal(t, "sensitive gums", *v.Notes)
	assert.Equal(t, int64(7500), v.TotalAmount)
	assert.Equal(t, int64(0), v.AmountPaid)
	assert.Equal(t, int64(7500), v.AmountLeft)

	require.Len(t, v.Acts, 2)
	var teeth []string
	for _, a := range v.Acts {
		require.NotNil(t, a.VisitType)
		teeth = append(teeth, a.Teeth...)
	}
	assert.ElementsMatch(t, []string{"11", "21", "85"}, teeth)
}

func TestVisitCreate_InlinePatientAndInitialPayment(t *testing.T) {
	f := newFixture(t)
	vt := f.visitType("Extraction")

	v, err := f.visits.Create(f.ctx, f.userID, CreateVisitInput{
		NewPatient:     &CreatePatientInput{Name: "Yacine", Sex: "M", Age: 28},
		VisitTime:      time.Now().UnixMilli(),
		Acts:           []ActInput{act(vt.ID, 4000, "38")},
		InitialPayment: &InitialPaymentInput{Amount: 1500, PaymentMethod: "card"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1500), v.AmountPaid)
	assert.Equal(t, int64(2500), v.AmountLeft)
	assert.Equal(t, int64(1), f.count(&models.Patient{}))

	_, err = f.visits.Create(f.ctx, f.userID, CreateVisitInput{
		NewPatient:     &CreatePatientInput{Name: "Lina", Sex: "F", Age: 31},
		VisitTime:      time.Now().UnixMilli(),
		Acts:           []ActInput{act(vt.ID, 4000, "38")},
		InitialPayment: &InitialPaymentInput{Amount: 4001},
	})
	requireKind(t, err, KindValidation)

	// the failed create rolled back its inline patient
	assert.Equal(t, int64(1), f.count(&models.Patient{}))
	assert.Equal(t, int64(1), f.count(&models.Visit{}))
	assert.Equal(t, int64(1), f.count(&models.Payment{}))
}

func TestVisitSoftDeleteAndRestore(t *testing.T) {
	f := newFixture(t)
	p := f.patient("Amina", "F", 34)
	vt := f.visitType("Cleaning")
	v := f.visit(p.ID, time.Now(), act(vt.ID, 5000, "11"))
	_, err := f.pay(v.ID, 1200)
	require.NoError(t, err)

	before, err := f.visits.Get(f.ctx, f.userID, v.ID)
	require.NoError(t, err)

	require.NoError(t, f.visits.SoftDelete(f.ctx, f.userID, v.ID))

	_, err = f.visits.Get(f.ctx, f.userID, v.ID)
	requireKind(t, err, KindNotFound)
	active, err := f.visits.List(f.ctx, f.userID, VisitFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)
	trash, err := f.visits.List(f.ctx, f.userID, VisitFilter{Deleted: true})
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.True(t, trash[0].IsDeleted)

	require.NoError(t, f.visits.Restore(f.ctx, f.userID, v.ID))

	after, err := f.visits.Get(f.ctx, f.userID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, before.TotalAmount, after.TotalAmount)
	assert.Equal(t, before.AmountPaid, after.AmountPaid)
	assert.Equal(t, before.AmountLeft, after.AmountLeft)

	listed, err := f.visits.List(f.ctx, f.userID, VisitFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	history, err := f.patients.GetWithVisits(f.ctx, f.userID, p.ID)
	require.NoError(t, err)
	require.Len(t, history.Visits, 1)
	assert.Equal(t, before.AmountLeft, history.Visits[0].AmountLeft)

	other := f.user("other@clinic.test")
	requireKind(t, f.visits.SoftDelete(f.ctx, other.ID, v.ID), KindNotFound)
	requireKind(t, f.visits.Restore(f.ctx, f.userID, uuid.New()), KindNotFound)
}

func TestVisitUpdate(t *testing.T) {
	f := newFixture(t)
	p := f.patient("Amina", "F", 34)
	cleaning := f.visitType("Cleaning")
	crown := f.visitType("Crown")
	v := f.visit(p.ID, time.Now(), act(cleaning.ID, 5000, "11"))
	_, err := f.pay(v.ID, 3000)
	require.NoError(t, err)

	t.Run("acts omitted keeps acts", func(t *testing.T) {
		notes := "follow-up in two weeks"
		updated, err := f.visits.Update(f.ctx, f.userID, v.ID, UpdateVisitInput{Notes: &notes})
		require.NoError(t, err)
		require.Len(t, updated.Acts, 1)
		require.NotNil(t, updated.Notes)
		assert.Equal(t, notes, *updated.Notes)
		assert.Equal(t, int64(5000), updated.TotalAmount)
	})

	t.Run("replacement below amount paid is rejected", func(t *testing.T) {
		acts := []ActInput{act(cleaning.ID, 2000, "11")}
		_, err := f.visits.Update(f.ctx, f.userID, v.ID, UpdateVisitInput{Acts: &acts})
		requireKind(t, err, KindValidation)

		current, err := f.visits.Get(f.ctx, f.userID, v.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), current.TotalAmount)
	})

	t.Run("empty replacement is rejected", func(t *testing.T) {
		acts := []ActInput{}
		_, err := f.visits.Update(f.ctx, f.userID, v.ID, UpdateVisitInput{Acts: &acts})
		requireKind(t, err, KindValidation)
	})

	t.Run("replacement swaps acts and keeps payments", func(t *testing.T) {
		at := time.Now().Add(-time.Hour).UnixMilli()
		acts := []ActInput{act(crown.ID, 9000, "16", "17"), act(cleaning.ID, 1000, "11")}
		updated, err := f.visits.Update(f.ctx, f.userID, v.ID, UpdateVisitInput{VisitTime: &at, Acts: &acts})
		require.NoError(t, err)
		assert.Equal(t, at, updated.VisitTime)
		assert.Len(t, updated.Acts, 2)
		assert.Equal(t, int64(10000), updated.TotalAmount)
		assert.Equal(t, int64(3000), updated.AmountPaid)
		assert.Equal(t, int64(7000), updated.AmountLeft)

		assert.Equal(t, int64(2), f.count(&models.VisitAct{}))
		assert.Equal(t, int64(3), f.count(&models.VisitActTooth{}))
		assert.Equal(t, int64(1), f.count(&models.Payment{}))
	})

	t.Run("unknown visit", func(t *testing.T) {
		notes := "x"
		_, err := f.visits.Update(f.ctx, f.userID, uuid.New(), UpdateVisitInput{Notes: &notes})
		requireKind(t, err, KindNotFound)
	})
}

func TestVisitList_Filters(t *testing.T) {
	f := newFixture(t)
	cleaning := f.visitType("Cleaning")
	extraction := f.visitType("Extraction")
	amina := f.patient("Amina", "F", 34)
	karim := f.patient("Karim", "M", 40)

	day := func(d int) time.Time { return time.Date(2025, 4, d, 9, 0, 0, 0, time.UTC) }
	v1 := f.visit(amina.ID, day(1), act(cleaning.ID, 1000, "11"))
	v2 := f.visit(karim.ID, day(2), act(extraction.ID, 3000, "48"))
	v3 := f.visit(amina.ID, day(3), act(cleaning.ID, 1000, "21"), act(extraction.ID, 3000, "38"))

	ids := func(details []VisitDetail) []uuid.UUID {
		out := make([]uuid.UUID, 0, len(details))
		for _, d := range details {
			out = append(out, d.ID)
		}
		return out
	}
	list := func(filter VisitFilter) []uuid.UUID {
		details, err := f.visits.List(f.ctx, f.userID, filter)
		require.NoError(t, err)
		return ids(details)
	}

	assert.Equal(t, []uuid.UUID{v3.ID, v2.ID, v1.ID}, list(VisitFilter{}))

	from, to := day(2).UnixMilli(), day(2).UnixMilli()
	assert.Equal(t, []uuid.UUID{v2.ID}, list(VisitFilter{DateFrom: &from, DateTo: &to}))

	assert.Equal(t, []uuid.UUID{v3.ID, v1.ID}, list(VisitFilter{PatientName: "AMI"}))

	typeID := extraction.ID
	assert.Equal(t, []uuid.UUID{v3.ID, v2.ID}, list(VisitFilter{VisitTypeID: &typeID}))
	assert.Equal(t, []uuid.UUID{v3.ID}, list(VisitFilter{VisitTypeID: &typeID, PatientName: "amina"}))

	details, err := f.visits.List(f.ctx, f.userID, VisitFilter{})
	require.NoError(t, err)
	require.NotNil(t, details[0].Patient)
	assert.Equal(t, "Amina", details[0].Patient.Name)
	assert.Equal(t, int64(4000), details[0].TotalAmount)
}

func TestVisitAmountsStayWithinBounds(t *testing.T) {
	f := newFixture(t)
	p := f.patient("Amina", "F", 34)
	vt := f.visitType("Crown")
	at := time.Now()

	v := f.visit(p.ID, at, act(vt.ID, models.MaxAmount, "16"))
	assert.Equal(t, models.MaxAmount, v.AmountLeft)

	_, err := f.visits.Update(f.ctx, f.userID, v.ID, UpdateVisitInput{
		Acts: &[]ActInput{act(vt.ID, models.MaxAmount, "16"), act(vt.ID, 1, "17")},
	})
	requireKind(t, err, KindValidation)

	_, err = f.visits.Create(f.ctx, f.userID, CreateVisitInput{
		PatientID:      &p.ID,
		VisitTime:      at.UnixMilli(),
		Acts:           []ActInput{act(vt.ID, 1000, "11")},
		InitialPayment: &InitialPaymentInput{Amount: math.MaxInt64},
	})
	requireKind(t, err, KindValidation)

	_, err = f.pay(v.ID, math.MaxInt64)
	requireKind(t, err, KindValidation)

	// reads keep working with the largest admissible visit on the books
	visits, err := f.visits.List(f.ctx, f.userID, VisitFilter{})
	require.NoError(t, err)
	require.Len(t, visits, 1)

	rows, err := f.patients.ListWithFilters(f.ctx, f.userID, PatientFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.MaxAmount, rows[0].TotalUnpaid)

	summary, err := f.summaries.Daily(f.ctx, f.userID, at)
	require.NoError(t, err)
	assert.Equal(t, models.MaxAmount, summary.TotalExpected)
}

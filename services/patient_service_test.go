package services

import (
	"testing"
	"time"

	"dentalclinic-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(rows []PatientOverview) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Name)
	}
	return out
}

func TestListWithFilters(t *testing.T) {
	f := newFixture(t)
	cleaning := f.visitType("Cleaning")
	extraction := f.visitType("Extraction")

	day := func(d int) time.Time { return time.Date(2025, 3, d, 10, 0, 0, 0, time.UTC) }

	amina := f.patient("Amina", "F", 34)
	karim := f.patient("Karim", "M", 40)
	sara := f.patient("Sara", "F", 9)
	f.patient("Nobody", "M", 60)

	f.visit(amina.ID, day(1), act(cleaning.ID, 3000, "11"))
	aminaLast := f.visit(amina.ID, day(10), act(cleaning.ID, 2000, "21"))
	karimVisit := f.visit(karim.ID, day(5), act(extraction.ID, 8000, "48"))
	saraVisit := f.visit(sara.ID, day(20), act(cleaning.ID, 1500, "51", "61"))

	_, err := f.pay(karimVisit.ID, 8000)
	require.NoError(t, err)
	_, err = f.pay(saraVisit.ID, 1500)
	require.NoError(t, err)

	list := func(filter PatientFilter) []PatientOverview {
		rows, err := f.patients.ListWithFilters(f.ctx, f.userID, filter)
		require.NoError(t, err)
		return rows
	}

	t.Run("default excludes patients without visits and sorts by last visit", func(t *testing.T) {
		rows := list(PatientFilter{})
		assert.Equal(t, []string{"Sara", "Amina", "Karim"}, names(rows))

		amina := rows[1]
		require.NotNil(t, amina.LastVisit)
		assert.Equal(t, aminaLast.ID, amina.LastVisit.ID)
		assert.Len(t, amina.Visits, 2)
		assert.Equal(t, int64(5000), amina.TotalUnpaid)
	})

	t.Run("include without visits sorts them last", func(t *testing.T) {
		rows := list(PatientFilter{IncludeWithoutVisits: true})
		assert.Equal(t, []string{"Sara", "Amina", "Karim", "Nobody"}, names(rows))
		assert.Nil(t, rows[3].LastVisit)
		assert.Empty(t, rows[3].Visits)
	})

	t.Run("name is a case-insensitive substring", func(t *testing.T) {
		assert.Equal(t, []string{"Amina"}, names(list(PatientFilter{Name: "MIN"})))
	})

	t.Run("sex", func(t *testing.T) {
		assert.Equal(t, []string{"Sara", "Amina"}, names(list(PatientFilter{Sex: "F"})))
		_, err := f.patients.ListWithFilters(f.ctx, f.userID, PatientFilter{Sex: "X"})
		requireKind(t, err, KindValidation)
	})

	t.Run("date bounds apply to the last visit", func(t *testing.T) {
		from := day(6).UnixMilli()
		to := day(15).UnixMilli()
		assert.Equal(t, []string{"Amina"}, names(list(PatientFilter{DateFrom: &from, DateTo: &to})))
		assert.Equal(t, []string{"Sara", "Amina"}, names(list(PatientFilter{DateFrom: &from})))
	})

	t.Run("visit type matches any visit", func(t *testing.T) {
		id := extraction.ID
		assert.Equal(t, []string{"Karim"}, names(list(PatientFilter{VisitTypeID: &id})))
	})

	t.Run("has unpaid", func(t *testing.T) {
		rows := list(PatientFilter{HasUnpaid: true})
		assert.Equal(t, []string{"Amina"}, names(rows))
		for _, r := range list(PatientFilter{}) {
			if r.TotalUnpaid > 0 {
				assert.Contains(t, names(rows), r.Name)
			}
		}
	})
}

func TestListWithFilters_IgnoresDeletedVisits(t *testing.T) {
	f := newFixture(t)
	vt := f.visitType("Cleaning")
	p := f.patient("Amina", "F", 34)
	v := f.visit(p.ID, time.Now(), act(vt.ID, 1000, "11"))

	require.NoError(t, f.visits.SoftDelete(f.ctx, f.userID, v.ID))
	rows, err := f.patients.ListWithFilters(f.ctx, f.userID, PatientFilter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPatientCRUD(t *testing.T) {
	f := newFixture(t)

	_, err := f.patients.Create(f.ctx, f.userID, CreatePatientInput{Name: " ", Sex: "F", Age: 30})
	requireKind(t, err, KindValidation)
	_, err = f.patients.Create(f.ctx, f.userID, CreatePatientInput{Name: "Amina", Sex: "female", Age: 30})
	requireKind(t, err, KindValidation)
	_, err = f.patients.Create(f.ctx, f.userID, CreatePatientInput{Name: "Amina", Sex: "F", Age: 151})
	requireKind(t, err, KindValidation)

	phone := " 0555 12 34 56 "
	p, err := f.patients.Create(f.ctx, f.userID, CreatePatientInput{Name: " Amina ", Sex: "f", Age: 34, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Amina", p.Name)
	assert.Equal(t, models.SexFemale, p.Sex)
	require.NotNil(t, p.Phone)
	assert.Equal(t, "0555 12 34 56", *p.Phone)

	age := 35
	address := "12 Rue Didouche"
	updated, err := f.patients.Update(f.ctx, f.userID, p.ID, UpdatePatientInput{Age: &age, Address: &address})
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Age)
	assert.Equal(t, "Amina", updated.Name)

	bad := -1
	_, err = f.patients.Update(f.ctx, f.userID, p.ID, UpdatePatientInput{Age: &bad})
	requireKind(t, err, KindValidation)

	got, err := f.patients.Get(f.ctx, f.userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, got.Age)
	require.NotNil(t, got.Address)

	other := f.user("other@clinic.test")
	_, err = f.patients.Get(f.ctx, other.ID, p.ID)
	requireKind(t, err, KindNotFound)
	_, err = f.patients.Update(f.ctx, other.ID, p.ID, UpdatePatientInput{Age: &age})
	requireKind(t, err, KindNotFound)
}

func TestPatientSearchAndList(t *testing.T) {
	f := newFixture(t)
	f.patient("Amina Benali", "F", 34)
	f.patient("Karim Haddad", "M", 40)
	f.patient("Amine Saadi", "M", 22)

	found, err := f.patients.Search(f.ctx, f.userID, "amin")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Amina Benali", found[0].Name)

	_, err = f.patients.Search(f.ctx, f.userID, "  ")
	requireKind(t, err, KindValidation)

	all, err := f.patients.List(f.ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	other := f.user("other@clinic.test")
	none, err := f.patients.List(f.ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPatientGetWithVisits(t *testing.T) {
	f := newFixture(t)
	vt := f.visitType("Cleaning")
	p := f.patient("Amina", "F", 34)
	older := f.visit(p.ID, time.Now().Add(-24*time.Hour), act(vt.ID, 1000, "11"))
	newer := f.visit(p.ID, time.Now(), act(vt.ID, 2000, "21"))
	_, err := f.pay(older.ID, 1000)
	require.NoError(t, err)

	history, err := f.patients.GetWithVisits(f.ctx, f.userID, p.ID)
	require.NoError(t, err)
	require.Len(t, history.Visits, 2)
	assert.Equal(t, newer.ID, history.Visits[0].ID)
	assert.Equal(t, int64(2000), history.TotalUnpaid)

	_, err = f.patients.GetWithVisits(f.ctx, f.userID, uuid.New())
	requireKind(t, err, KindNotFound)
}

func TestPatientDelete_RemovesEverything(t *testing.T) {
	f := newFixture(t)
	vt := f.visitType("Cleaning")
	p := f.patient("Amina", "F", 34)
	keep := f.patient("Karim", "M", 40)

	v := f.visit(p.ID, time.Now(), act(vt.ID, 1000, "11", "12"))
	f.visit(keep.ID, time.Now(), act(vt.ID, 1000, "21"))
	_, err := f.pay(v.ID, 500)
	require.NoError(t, err)

	require.NoError(t, f.patients.Delete(f.ctx, f.userID, p.ID))

	assert.Equal(t, int64(1), f.count(&models.Patient{}))
	assert.Equal(t, int64(1), f.count(&models.Visit{}))
	assert.Equal(t, int64(1), f.count(&models.VisitAct{}))
	assert.Equal(t, int64(1), f.count(&models.VisitActTooth{}))
	assert.Equal(t, int64(0), f.count(&models.Payment{}))

	requireKind(t, f.patients.Delete(f.ctx, f.userID, p.ID), KindNotFound)
}

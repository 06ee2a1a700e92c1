package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/Bekawhite/DigitalLab/internal/testutil"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(testutil.OpenSQLite(t))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createPatient(t *testing.T, st *store.Store, username, first string) (types.User, types.Patient) {
	t.Helper()
	user, patient, err := st.CreatePatientAccount(context.Background(), types.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         types.RolePatient,
	}, types.Patient{
		FirstName:   first,
		LastName:    "Doe",
		DateOfBirth: date(1990, time.May, 1),
		Gender:      "female",
	})
	require.NoError(t, err)
	return user, patient
}

func createResult(t *testing.T, st *store.Store, patientID int, testType string, testDate time.Time, status types.ResultStatus) types.LabResult {
	t.Helper()
	result, _, err := st.CreateLabResult(context.Background(), types.LabResult{
		PatientID:  patientID,
		TestType:   testType,
		TestDate:   testDate,
		ResultDate: testDate,
		Status:     status,
		FilePath:   testType + ".pdf",
	}, types.Notification{
		Type:      types.NotificationPortal,
		Recipient: "someone@example.com",
	})
	require.NoError(t, err)
	return result
}

func count(t *testing.T, st *store.Store, table string) int {
	t.Helper()
	n := 0
	switch table {
	case "patients":
		patients, err := st.Patients.List(context.Background())
		require.NoError(t, err)
		n = len(patients)
	case "lab_results":
		results, err := st.LabResults.List(context.Background(), store.LabResultFilter{})
		require.NoError(t, err)
		n = len(results)
	default:
		t.Fatalf("unsupported table %s", table)
	}
	return n
}

func TestCreatePatientAccountRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	user, patient := createPatient(t, st, "p1", "Pat")
	require.NotZero(t, user.ID)
	require.NotZero(t, patient.ID)
	assert.Equal(t, user.ID, patient.UserID)

	loaded, err := st.Users.GetByUsername(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, types.RolePatient, loaded.Role)
	assert.Equal(t, "p1@example.com", loaded.Email)
	assert.Empty(t, loaded.Phone)
	assert.False(t, loaded.CreatedAt.IsZero())

	profile, err := st.Patients.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, patient.ID, profile.ID)
	assert.True(t, profile.DateOfBirth.Equal(date(1990, time.May, 1)))
	assert.Empty(t, profile.Address)
}

func TestDuplicateUsernameLeavesFirstUserIntact(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	first, _ := createPatient(t, st, "alice", "Alice")

	_, err := st.CreateLabTechAccount(ctx, types.User{
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "hash",
		Role:         types.RoleLabTech,
	})
	var dup *store.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, store.FieldUsername, dup.Field)

	loaded, err := st.Users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, loaded.ID)
	assert.Equal(t, "alice@example.com", loaded.Email)
}

func TestDuplicateEmailReported(t *testing.T) {
	st := newStore(t)
	createPatient(t, st, "alice", "Alice")

	_, err := st.CreateLabTechAccount(context.Background(), types.User{
		Username:     "bob",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         types.RoleLabTech,
	})
	var dup *store.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, store.FieldEmail, dup.Field)
}

func TestDuplicateLicenseRollsBackUser(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	doctor := types.Doctor{FirstName: "Greg", LastName: "House", Specialization: "Diagnostics", LicenseNumber: "LIC-1"}
	_, _, err := st.CreateDoctorAccount(ctx, types.User{
		Username: "house", Email: "house@example.com", PasswordHash: "hash", Role: types.RoleDoctor,
	}, doctor)
	require.NoError(t, err)

	_, _, err = st.CreateDoctorAccount(ctx, types.User{
		Username: "wilson", Email: "wilson@example.com", PasswordHash: "hash", Role: types.RoleDoctor,
	}, doctor)
	var dup *store.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, store.FieldLicenseNumber, dup.Field)

	_, err = st.Users.GetByUsername(ctx, "wilson")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAccountCommitsRejectRoleMismatch(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, _, err := st.CreatePatientAccount(ctx, types.User{Username: "x", Email: "x@example.com", Role: types.RoleDoctor}, types.Patient{})
	assert.ErrorIs(t, err, store.ErrRoleMismatch)

	_, _, err = st.CreateDoctorAccount(ctx, types.User{Username: "y", Email: "y@example.com", Role: types.RolePatient}, types.Doctor{})
	assert.ErrorIs(t, err, store.ErrRoleMismatch)

	_, err = st.CreateLabTechAccount(ctx, types.User{Username: "z", Email: "z@example.com", Role: types.RolePatient})
	assert.ErrorIs(t, err, store.ErrRoleMismatch)

	_, err = st.Users.GetByUsername(ctx, "x")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(tx *store.Store) error {
		if _, err := tx.Users.Create(ctx, types.User{
			Username: "ghost", Email: "ghost@example.com", PasswordHash: "hash", Role: types.RoleLabTech,
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = st.Users.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateLabResultRollsBackWhenNotificationFails(t *testing.T) {
	st := newStore(t)
	_, patient := createPatient(t, st, "p1", "Pat")

	_, _, err := st.CreateLabResult(context.Background(), types.LabResult{
		PatientID:  patient.ID,
		TestType:   "CBC",
		TestDate:   date(2024, time.March, 1),
		ResultDate: date(2024, time.March, 2),
		Status:     types.ResultCompleted,
	}, types.Notification{
		Type:      "carrier-pigeon",
		Recipient: "p1@example.com",
	})
	require.Error(t, err)
	assert.Zero(t, count(t, st, "lab_results"))
}

func TestLabResultListingOrderAndFilters(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	_, alice := createPatient(t, st, "alice", "Alice")
	_, bob := createPatient(t, st, "bob", "Bob")

	older := createResult(t, st, alice.ID, "Lipid", date(2024, time.January, 10), types.ResultCompleted)
	newer := createResult(t, st, alice.ID, "CBC", date(2024, time.June, 1), types.ResultCompleted)
	pending := createResult(t, st, bob.ID, "MRI", date(2024, time.March, 5), types.ResultPending)

	own, err := st.LabResults.List(ctx, store.LabResultFilter{PatientID: alice.ID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID)
	assert.Equal(t, older.ID, own[1].ID)
	for _, r := range own {
		assert.Equal(t, alice.ID, r.PatientID)
	}

	all, err := st.LabResults.List(ctx, store.LabResultFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{newer.ID, pending.ID, older.ID}, []int{all[0].ID, all[1].ID, all[2].ID})

	pendingOnly, err := st.LabResults.List(ctx, store.LabResultFilter{Status: types.ResultPending})
	require.NoError(t, err)
	require.Len(t, pendingOnly, 1)
	assert.Equal(t, pending.ID, pendingOnly[0].ID)

	fetched, err := st.LabResults.Get(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, "CBC", fetched.TestType)
	assert.True(t, fetched.TestDate.Equal(date(2024, time.June, 1)))
	assert.Equal(t, "CBC.pdf", fetched.FilePath)

	notifications, err := st.Notifications.ListByLabResult(ctx, newer.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, types.NotificationPortal, notifications[0].Type)
	assert.Equal(t, types.NotificationSent, notifications[0].Status)

	_, err = st.LabResults.Get(ctx, 9999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLabResultDefaultsToPending(t *testing.T) {
	st := newStore(t)
	_, patient := createPatient(t, st, "p1", "Pat")

	created, err := st.LabResults.Create(context.Background(), types.LabResult{
		PatientID:  patient.ID,
		TestType:   "Urinalysis",
		TestDate:   time.Date(2024, time.February, 3, 15, 4, 5, 0, time.UTC),
		ResultDate: date(2024, time.February, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, types.ResultPending, created.Status)

	loaded, err := st.LabResults.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, loaded.TestDate.Equal(date(2024, time.February, 3)))
	assert.False(t, loaded.HasFile())
}

func TestPatientsListedByFirstName(t *testing.T) {
	st := newStore(t)
	createPatient(t, st, "zed", "Zed")
	createPatient(t, st, "amy", "Amy")
	createPatient(t, st, "max", "Max")

	patients, err := st.Patients.List(context.Background())
	require.NoError(t, err)
	require.Len(t, patients, 3)
	assert.Equal(t, []string{"Amy", "Max", "Zed"}, []string{patients[0].FirstName, patients[1].FirstName, patients[2].FirstName})
}

func TestDeleteUserCascades(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	user, patient := createPatient(t, st, "p1", "Pat")
	_, other := createPatient(t, st, "p2", "Other")
	result := createResult(t, st, patient.ID, "CBC", date(2024, time.May, 5), types.ResultCompleted)
	kept := createResult(t, st, other.ID, "CBC", date(2024, time.May, 5), types.ResultCompleted)

	require.NoError(t, st.Users.Delete(ctx, user.ID))

	_, err := st.Users.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Patients.GetByID(ctx, patient.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.LabResults.Get(ctx, result.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	notifications, err := st.Notifications.ListByLabResult(ctx, result.ID)
	require.NoError(t, err)
	assert.Empty(t, notifications)

	_, err = st.LabResults.Get(ctx, kept.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, count(t, st, "patients"))

	assert.ErrorIs(t, st.Users.Delete(ctx, user.ID), store.ErrNotFound)
}

func TestDeleteDoctorUserRemovesProfile(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	user, _, err := st.CreateDoctorAccount(ctx, types.User{
		Username: "house", Email: "house@example.com", PasswordHash: "hash", Role: types.RoleDoctor, Phone: "555-0100",
	}, types.Doctor{FirstName: "Greg", LastName: "House", Specialization: "Diagnostics", LicenseNumber: "LIC-9", Hospital: "PPTH"})
	require.NoError(t, err)

	doctor, err := st.Doctors.GetByLicenseNumber(ctx, "LIC-9")
	require.NoError(t, err)
	assert.Equal(t, "PPTH", doctor.Hospital)

	require.NoError(t, st.Users.Delete(ctx, user.ID))
	_, err = st.Doctors.GetByUserID(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

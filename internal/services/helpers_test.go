package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Bekawhite/DigitalLab/internal/auth"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/internal/storage"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/Bekawhite/DigitalLab/internal/testutil"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store   *store.Store
	files   *storage.Storage
	dir     string
	logs    *test.Hook
	log     *logrus.Logger
	auth    *services.AuthService
	users   *services.UserService
	results *services.ResultService
	upload  *services.UploadService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := store.New(testutil.OpenSQLite(t))

	dir := filepath.Join(t.TempDir(), "uploads")
	backend, err := storage.NewFilesystemClient(dir)
	require.NoError(t, err)
	require.NoError(t, backend.EnsureBucket(context.Background()))
	files := storage.NewStorage(backend)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	passwords := auth.NewPasswordManager(bcrypt.MinCost)

	return &fixture{
		store:   st,
		files:   files,
		dir:     dir,
		logs:    hook,
		log:     logger,
		auth:    services.NewAuthService(st.Users, st.Doctors, st, passwords, logger),
		users:   services.NewUserService(st.Users, logger),
		results: services.NewResultService(st.Users, st.Patients, st.Doctors, st.LabResults, st.Notifications, files, logger),
		upload:  services.NewUploadService(st.Users, st.Patients, files, st, logger),
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func patientInput(username, first string) services.RegisterInput {
	return services.RegisterInput{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "x",
		UserType:    "patient",
		FirstName:   first,
		LastName:    "Doe",
		DateOfBirth: date(1990, time.May, 1),
		Gender:      "female",
	}
}

func doctorInput(username, license string) services.RegisterInput {
	return services.RegisterInput{
		Username:       username,
		Email:          username + "@example.com",
		Password:       "z",
		UserType:       "doctor",
		FirstName:      "Greg",
		LastName:       "House",
		Specialization: "Diagnostics",
		LicenseNumber:  license,
	}
}

func techInput(username string) services.RegisterInput {
	return services.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "y",
		UserType: "lab_tech",
	}
}

func (f *fixture) register(t *testing.T, in services.RegisterInput) (types.User, session.Session) {
	t.Helper()
	user, err := f.auth.Register(context.Background(), in)
	require.NoError(t, err)
	return user, session.Session{UserID: user.ID, Username: user.Username, Role: user.Role}
}

func (f *fixture) patientID(t *testing.T, user types.User) int {
	t.Helper()
	p, err := f.store.Patients.GetByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	return p.ID
}

func (f *fixture) blobs(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (f *fixture) resultCount(t *testing.T) int {
	t.Helper()
	results, err := f.store.LabResults.List(context.Background(), store.LabResultFilter{})
	require.NoError(t, err)
	return len(results)
}

func uploadInput(patientID int, name string, data []byte) services.UploadInput {
	return services.UploadInput{
		PatientID:  patientID,
		TestType:   "CBC",
		TestDate:   date(2024, time.June, 1),
		ResultDate: date(2024, time.June, 2),
		Notes:      "fasting",
		File:       &services.FileUpload{Name: name, Data: data},
	}
}

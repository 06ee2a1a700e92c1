package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Bekawhite/DigitalLab/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T, opts ...Option) (*Storage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	backend, err := NewFilesystemClient(dir)
	require.NoError(t, err)
	require.NoError(t, backend.EnsureBucket(context.Background()))
	return NewStorage(backend, opts...), dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPutGetRoundTrip(t *testing.T) {
	fixed := time.Date(2024, time.March, 9, 14, 5, 6, 0, time.UTC)
	st, dir := newTestStorage(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()
	payload := bytes.Repeat([]byte("a"), 120)

	name, err := st.Put(ctx, "report.pdf", payload)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "20240309140506_"), name)
	assert.True(t, strings.HasSuffix(name, "_report.pdf"), name)
	assert.Len(t, strings.SplitN(name, "_", 3)[1], 12)

	got, err := st.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, []string{name}, listDir(t, dir))
}

func TestPutGetRoundTripRepeatedDots(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()

	name, err := st.Put(ctx, "cbc..v2.pdf", []byte("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_cbc.v2.pdf"), name)

	got, err := st.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
	require.NoError(t, st.Delete(ctx, name))
}

func TestValidStoredNameAllowsInnerDots(t *testing.T) {
	assert.True(t, ValidStoredName("20240101000000_000000000000_cbc..v2.pdf"))
	assert.False(t, ValidStoredName(".."))
	assert.False(t, ValidStoredName("../x.pdf"))
}

func TestPutSizeBoundary(t *testing.T) {
	st, dir := newTestStorage(t)
	ctx := context.Background()

	_, err := st.Put(ctx, "exact.pdf", make([]byte, config.DefaultMaxUploadBytes))
	require.NoError(t, err)

	_, err = st.Put(ctx, "over.pdf", make([]byte, config.DefaultMaxUploadBytes+1))
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.Len(t, listDir(t, dir), 1)
}

func TestPutRejectsUnsupportedExtension(t *testing.T) {
	st, dir := newTestStorage(t)
	ctx := context.Background()

	for _, name := range []string{"virus.exe", "noext", "archive.tar.gz"} {
		_, err := st.Put(ctx, name, []byte("MZ"))
		assert.ErrorIs(t, err, ErrUnsupportedFileType, name)
	}
	assert.Empty(t, listDir(t, dir))
}

func TestPutExtensionCaseInsensitive(t *testing.T) {
	st, _ := newTestStorage(t)

	name, err := st.Put(context.Background(), "SCAN.PNG", []byte("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, "_SCAN.PNG"))
}

func TestCustomLimits(t *testing.T) {
	st, _ := newTestStorage(t, WithMaxBytes(4), WithAllowedExtensions([]string{".csv"}))
	ctx := context.Background()

	_, err := st.Put(ctx, "a.csv", []byte("1234"))
	require.NoError(t, err)
	_, err = st.Put(ctx, "a.csv", []byte("12345"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	_, err = st.Put(ctx, "a.pdf", []byte("1"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
	assert.EqualValues(t, 4, st.MaxBytes())
}

func TestGetMissingAndMalformedNames(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()

	_, err := st.Get(ctx, "20240101000000_000000000000_missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"", "../etc/passwd", "..", "a/b.pdf", `a\b.pdf`, strings.Repeat("x", 201)} {
		_, err := st.Get(ctx, name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
}

func TestSameSecondSameNameDistinct(t *testing.T) {
	fixed := time.Date(2024, time.March, 9, 14, 5, 6, 0, time.UTC)
	st, dir := newTestStorage(t, WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	first, err := st.Put(ctx, "report.pdf", []byte("one"))
	require.NoError(t, err)
	second, err := st.Put(ctx, "report.pdf", []byte("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Len(t, listDir(t, dir), 2)

	got, err := st.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
}

func TestDelete(t *testing.T) {
	st, _ := newTestStorage(t)
	ctx := context.Background()

	name, err := st.Put(ctx, "notes.txt", []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, st.Delete(ctx, name))
	_, err = st.Get(ctx, name)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, st.Delete(ctx, name))
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"report.pdf":           "report.pdf",
		"my report (1).pdf":    "my_report__1_.pdf",
		"../../etc/passwd.txt": "passwd.txt",
		`C:\scans\xray.png`:    "xray.png",
		"résumé.doc":           "r_sum_.doc",
		"cbc..v2.pdf":          "cbc.v2.pdf",
		"...":                  "file",
		"":                     "file",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeName(in, 0), in)
	}

	long := strings.Repeat("a", 300) + ".docx"
	got := SanitizeName(long, 50)
	assert.Len(t, got, 50)
	assert.True(t, strings.HasSuffix(got, ".docx"))
}

func TestLongOriginalNameFitsColumn(t *testing.T) {
	st, _ := newTestStorage(t)

	name, err := st.Put(context.Background(), strings.Repeat("b", 400)+".pdf", []byte("x"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(name), MaxStoredNameLength)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.True(t, ValidStoredName(name))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("x_report.PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("x_noext"))
}

func TestNewBackendRejectsUnknown(t *testing.T) {
	_, err := NewBackend(context.Background(), config.StorageConfig{Backend: "tape"})
	assert.Error(t, err)
}

func TestOpenFilesystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "blobs")
	st, err := Open(context.Background(), config.Config{
		Storage: config.StorageConfig{Backend: config.BackendFilesystem, Dir: dir},
		Upload:  config.UploadConfig{MaxBytes: 10, AllowedExtensions: []string{"txt"}},
	})
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.EqualValues(t, 10, st.MaxBytes())
}

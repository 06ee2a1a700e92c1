package storage

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/Bekawhite/DigitalLab/config"
)

var (
	// ErrNotFound is returned when no blob exists under a stored name.
	ErrNotFound = errors.New("file not found")
	// ErrUnsupportedFileType is returned for extensions outside the allow-list.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for payloads above the configured limit.
	ErrFileTooLarge = errors.New("file too large")
)

// MaxStoredNameLength matches the width of lab_results.file_path.
const MaxStoredNameLength = 200

const (
	timestampLayout = "20060102150405"
	randomBytes     = 6
)

// ObjectStorage defines common object operations across backends.
// Get returns ErrNotFound when the key does not exist.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend and owns naming and admission of
// uploaded files.
type Storage struct {
	backend    ObjectStorage
	maxBytes   int64
	extensions map[string]struct{}
	now        func() time.Time
	random     io.Reader
}

// Option customizes a Storage.
type Option func(*Storage)

// WithMaxBytes sets the largest accepted payload.
func WithMaxBytes(n int64) Option {
	return func(s *Storage) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// WithAllowedExtensions replaces the extension allow-list. Entries are
// matched case-insensitively, with or without a leading dot.
func WithAllowedExtensions(exts []string) Option {
	return func(s *Storage) {
		if len(exts) == 0 {
			return
		}
		s.extensions = extensionSet(exts)
	}
}

// WithClock overrides the time source used in stored names.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage, opts ...Option) *Storage {
	s := &Storage{
		backend:    backend,
		maxBytes:   config.DefaultMaxUploadBytes,
		extensions: extensionSet(config.DefaultAllowedExtensions),
		now:        time.Now,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// MaxBytes reports the upload size limit.
func (s *Storage) MaxBytes() int64 {
	return s.maxBytes
}

// Put validates and stores data under a fresh collision-free name derived
// from originalName. Nothing is written when validation fails.
func (s *Storage) Put(ctx context.Context, originalName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := s.extensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	if int64(len(data)) > s.maxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(data), s.maxBytes)
	}

	name, err := s.storedName(originalName)
	if err != nil {
		return "", err
	}
	if err := s.backend.Put(ctx, name, bytes.NewReader(data), int64(len(data)), ContentType(name)); err != nil {
		return "", fmt.Errorf("store %s: %w", name, err)
	}
	return name, nil
}

// Get returns the bytes stored under name.
func (s *Storage) Get(ctx context.Context, name string) ([]byte, error) {
	if !ValidStoredName(name) {
		return nil, ErrNotFound
	}
	rc, err := s.backend.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Delete removes the blob stored under name.
func (s *Storage) Delete(ctx context.Context, name string) error {
	if !ValidStoredName(name) {
		return ErrNotFound
	}
	return s.backend.Delete(ctx, name)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func (s *Storage) storedName(originalName string) (string, error) {
	buf := make([]byte, randomBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("generate file name: %w", err)
	}
	prefix := s.now().UTC().Format(timestampLayout) + "_" + hex.EncodeToString(buf) + "_"
	return prefix + SanitizeName(originalName, MaxStoredNameLength-len(prefix)), nil
}

// SanitizeName replaces every rune outside [letter digit . - _] with '_',
// collapses runs of '.' and trims the base so the result fits in limit
// bytes, keeping the extension.
func SanitizeName(name string, limit int) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	prevDot := false
	for _, r := range name {
		if r == '.' {
			if !prevDot {
				b.WriteByte('.')
			}
			prevDot = true
			continue
		}
		prevDot = false
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	clean := b.String()
	if clean == "" || clean == "." || clean == ".." {
		clean = "file"
	}
	if limit <= 0 || len(clean) <= limit {
		return clean
	}
	ext := filepath.Ext(clean)
	if len(ext) >= limit {
		return clean[:limit]
	}
	return clean[:limit-len(ext)] + ext
}

// ValidStoredName reports whether name is a single path element that Put
// could have produced. Dots inside the element are allowed.
func ValidStoredName(name string) bool {
	if name == "" || name == "." || name == ".." || len(name) > MaxStoredNameLength {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// ContentType guesses the media type from the file extension.
func ContentType(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func extensionSet(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

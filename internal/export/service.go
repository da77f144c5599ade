// Package export renders analyses as CSV files and stores them for download.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/batch"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/discount"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/snapshot"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/storage"
)

// ErrMissingUser is returned when an export has no owner.
var ErrMissingUser = errors.New("user id is required")

// Kind names what an export contains.
type Kind string

const (
	KindDiscounts Kind = "discounts"
	KindBatch     Kind = "batch"
	KindSnapshots Kind = "snapshots"
)

const contentType = "text/csv; charset=utf-8"

// File describes a stored export.
type File struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Kind      Kind      `json:"kind"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// Service writes exports to a storage backend.
type Service struct {
	store  storage.Storage
	logger *slog.Logger
}

// NewService creates an export service.
func NewService(store storage.Storage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Discounts stores a discount analysis for userID.
func (s *Service) Discounts(ctx context.Context, userID string, a discount.Analysis, code currency.Code) (File, error) {
	return s.put(ctx, userID, KindDiscounts, func(w io.Writer) (int, error) {
		return WriteDiscounts(w, a, code)
	})
}

// Batch stores a batch pricing report for userID.
func (s *Service) Batch(ctx context.Context, userID string, rep batch.Report, code currency.Code) (File, error) {
	return s.put(ctx, userID, KindBatch, func(w io.Writer) (int, error) {
		return WriteBatch(w, rep, code)
	})
}

// Snapshots stores a list of saved calculations for userID.
func (s *Service) Snapshots(ctx context.Context, userID string, snaps []snapshot.Snapshot) (File, error) {
	return s.put(ctx, userID, KindSnapshots, func(w io.Writer) (int, error) {
		return WriteSnapshots(w, snaps)
	})
}

// Open returns the content of one of userID's exports. Keys belonging to
// other users report storage.ErrNotFound.
func (s *Service) Open(ctx context.Context, userID, key string) (io.ReadCloser, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	key, err := ownedKey(userID, key)
	if err != nil {
		return nil, err
	}
	return s.store.Open(ctx, key)
}

// Link returns a time-limited download URL for one of userID's exports.
func (s *Service) Link(ctx context.Context, userID, key string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", ErrMissingUser
	}
	key, err := ownedKey(userID, key)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, key, ttl)
}

func (s *Service) put(ctx context.Context, userID string, kind Kind, write func(io.Writer) (int, error)) (File, error) {
	if userID == "" {
		return File{}, ErrMissingUser
	}

	var buf bytes.Buffer
	rows, err := write(&buf)
	if err != nil {
		return File{}, err
	}

	key := Key(userID, kind, uuid.New())
	url, err := s.store.Put(ctx, key, &buf, contentType)
	if err != nil {
		return File{}, fmt.Errorf("storing %s export: %w", kind, err)
	}

	s.logger.Info("export stored", "kind", kind, "key", key, "rows", rows, "user_id", userID)
	return File{Key: key, URL: url, Kind: kind, Rows: rows, CreatedAt: time.Now().UTC()}, nil
}

// ownedKey cleans key and checks that it names a file directly inside
// userID's export directory. The check runs on the cleaned key so that
// dot segments cannot step into another user's directory.
func ownedKey(userID, key string) (string, error) {
	key, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	name, ok := strings.CutPrefix(key, userDir(userID))
	if !ok || name == "" || strings.Contains(name, "/") {
		return "", storage.ErrNotFound
	}
	return key, nil
}

// Key builds the object key for an export: exports/{user}/{id}-{kind}.csv.
func Key(userID string, kind Kind, id uuid.UUID) string {
	return fmt.Sprintf("%s%s-%s.csv", userDir(userID), id, kind)
}

func userDir(userID string) string {
	return "exports/" + escapeUser(userID) + "/"
}

// escapeUser keeps ASCII letters, digits and '-' and writes every other byte
// as '_' followed by two hex digits. Distinct ids always map to distinct
// directories, and the result never contains '.' or '/'.
func escapeUser(userID string) string {
	var b strings.Builder
	for i := 0; i < len(userID); i++ {
		c := userID[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9', c == '-':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02x", c)
		}
	}
	return b.String()
}

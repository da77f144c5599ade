// Package snapshot stores saved calculations: the input a seller priced and
// the result it produced, keyed by user.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/calculator"
	"github.com/PrintMyStudios/EcomProfitCalculator-sub001/internal/currency"
)

// Sentinel errors returned by the snapshot service.
var (
	// ErrNotFound is returned when a snapshot does not exist for the user.
	ErrNotFound = errors.New("snapshot not found")

	// ErrMissingUser is returned when no user id is supplied.
	ErrMissingUser = errors.New("user id is required")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxNameLength    = 200
)

// Snapshot is one saved calculation.
type Snapshot struct {
	ID        uuid.UUID         `json:"id"`
	UserID    string            `json:"user_id"`
	Name      string            `json:"name"`
	Currency  currency.Code     `json:"currency"`
	Input     calculator.Input  `json:"input"`
	Result    calculator.Result `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// Replayed is a stored snapshot recalculated against the current fee tables.
type Replayed struct {
	Snapshot     Snapshot          `json:"snapshot"`
	Current      calculator.Result `json:"current"`
	ProfitChange int64             `json:"profit_change"`
}

// Service persists snapshots in Postgres.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates a new snapshot service.
func NewService(pool *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{pool: pool, logger: logger}
}

// Save calculates in and stores the pair under userID.
func (s *Service) Save(ctx context.Context, userID, name string, code currency.Code, in calculator.Input) (Snapshot, error) {
	if strings.TrimSpace(userID) == "" {
		return Snapshot{}, ErrMissingUser
	}
	if _, err := currency.Lookup(code); err != nil {
		return Snapshot{}, err
	}
	name = strings.TrimSpace(name)
	if len(name) > maxNameLength {
		return Snapshot{}, fmt.Errorf("%w: name is longer than %d characters", calculator.ErrInvalidInput, maxNameLength)
	}

	res, err := calculator.Calculate(in)
	if err != nil {
		return Snapshot{}, err
	}

	inputJSON, err := json.Marshal(in)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal snapshot input: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal snapshot result: %w", err)
	}

	snap := Snapshot{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Currency:  code,
		Input:     in,
		Result:    res,
		CreatedAt: time.Now().UTC(),
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO calculation_snapshots (id, user_id, name, currency, input, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, snap.ID, snap.UserID, snap.Name, string(snap.Currency), inputJSON, resultJSON, snap.CreatedAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	s.logger.Info("snapshot saved", "snapshot_id", snap.ID, "user_id", userID, "platform", in.Platform)
	return snap, nil
}

// Get returns one of userID's snapshots.
func (s *Service) Get(ctx context.Context, userID string, id uuid.UUID) (Snapshot, error) {
	if userID == "" {
		return Snapshot{}, ErrMissingUser
	}
	snap, err := scanSnapshot(s.pool.QueryRow(ctx, `
		SELECT id, user_id, name, currency, input, result, created_at
		FROM calculation_snapshots
		WHERE id = $1 AND user_id = $2
	`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

// List returns userID's snapshots, newest first. A non-positive limit uses
// the default page size.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Snapshot, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)
	offset = max(offset, 0)

	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, name, currency, input, result, created_at
		FROM calculation_snapshots
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	out := []Snapshot{}
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshot rows: %w", err)
	}
	return out, nil
}

// Delete removes one of userID's snapshots.
func (s *Service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	if userID == "" {
		return ErrMissingUser
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM calculation_snapshots WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Info("snapshot deleted", "snapshot_id", id, "user_id", userID)
	return nil
}

// Replay recalculates a stored snapshot. The stored input is validated again
// since it may predate the current rules.
func (s *Service) Replay(ctx context.Context, userID string, id uuid.UUID) (Replayed, error) {
	snap, err := s.Get(ctx, userID, id)
	if err != nil {
		return Replayed{}, err
	}
	if err := calculator.Validate(snap.Input); err != nil {
		return Replayed{}, fmt.Errorf("replay snapshot %s: %w", id, err)
	}
	res, err := calculator.Calculate(snap.Input)
	if err != nil {
		return Replayed{}, fmt.Errorf("replay snapshot %s: %w", id, err)
	}
	return Replayed{
		Snapshot:     snap,
		Current:      res,
		ProfitChange: res.Profit - snap.Result.Profit,
	}, nil
}

func scanSnapshot(row pgx.Row) (Snapshot, error) {
	var (
		snap                  Snapshot
		code                  string
		inputJSON, resultJSON []byte
	)
	if err := row.Scan(&snap.ID, &snap.UserID, &snap.Name, &code, &inputJSON, &resultJSON, &snap.CreatedAt); err != nil {
		return Snapshot{}, err
	}
	snap.Currency = currency.Code(code)
	if err := json.Unmarshal(inputJSON, &snap.Input); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot input: %w", err)
	}
	if err := json.Unmarshal(resultJSON, &snap.Result); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot result: %w", err)
	}
	return snap, nil
}

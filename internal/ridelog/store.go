package ridelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/WernerBudtke/moto-app/internal/ride"
)

var (
	// ErrStoreUnavailable means the backing store could not be reached in
	// time; the caller should retry, the summary it holds is not lost.
	ErrStoreUnavailable = errors.New("ride log store unavailable")
	// ErrCorruptData means the stored blob is not a parseable ride array.
	ErrCorruptData = errors.New("ride log data corrupt")
)

const defaultTimeout = 5 * time.Second

// Store keeps each user's ride log as a single JSON array blob. Append and
// delete are read-modify-write cycles with no isolation; single-writer usage
// per user is a precondition.
type Store struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewStore(rdb *redis.Client, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Store{rdb: rdb, timeout: timeout}
}

func logKey(userID string) string {
	return "ridelog:" + userID
}

// ListAll returns the user's saved rides in stored order. A missing blob is
// an empty log, not an error.
func (s *Store) ListAll(ctx context.Context, userID string) ([]ride.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.rdb.Get(ctx, logKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return []ride.Summary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rides []ride.Summary
	if err := json.Unmarshal([]byte(raw), &rides); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	return rides, nil
}

// Append reads the current log, appends one record and writes the full blob
// back.
func (s *Store) Append(ctx context.Context, userID string, summary ride.Summary) error {
	rides, err := s.ListAll(ctx, userID)
	if err != nil {
		return err
	}
	return s.writeAll(ctx, userID, append(rides, summary))
}

// FindByID scans the log for a matching timestamp id. Absence is reported
// through found, not as an error.
func (s *Store) FindByID(ctx context.Context, userID, id string) (ride.Summary, bool, error) {
	rides, err := s.ListAll(ctx, userID)
	if err != nil {
		return ride.Summary{}, false, err
	}
	for _, r := range rides {
		if r.ID() == id {
			return r, true, nil
		}
	}
	return ride.Summary{}, false, nil
}

// DeleteByID filters the matching record out and writes the log back.
// Deleting an absent id is a no-op, not an error.
func (s *Store) DeleteByID(ctx context.Context, userID, id string) error {
	rides, err := s.ListAll(ctx, userID)
	if err != nil {
		return err
	}

	kept := rides[:0]
	for _, r := range rides {
		if r.ID() != id {
			kept = append(kept, r)
		}
	}
	return s.writeAll(ctx, userID, kept)
}

func (s *Store) writeAll(ctx context.Context, userID string, rides []ride.Summary) error {
	payload, err := json.Marshal(rides)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptData, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.rdb.Set(ctx, logKey(userID), payload, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

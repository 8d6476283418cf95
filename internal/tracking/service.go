package tracking

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/WernerBudtke/moto-app/internal/ride"
	"github.com/WernerBudtke/moto-app/internal/stream"
)

var nowFn = time.Now

// Service owns one Tracker per user and serializes access to it, so
// concurrent sample deliveries over HTTP are safe. It also keeps the last
// completed summary around until the client saves it. Broadcasts happen
// after the lock is released; hub I/O never stalls sample ingestion.
type Service struct {
	cfg    Config
	hub    *stream.Hub
	logger *zap.Logger

	mu       sync.Mutex
	trackers map[string]*Tracker
	last     map[string]ride.Summary
}

func NewService(cfg Config, hub *stream.Hub, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:      cfg,
		hub:      hub,
		logger:   logger,
		trackers: make(map[string]*Tracker),
		last:     make(map[string]ride.Summary),
	}
}

func (s *Service) Start(userID string) (LiveState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tracker(userID)
	if err := t.Start(nowFn()); err != nil {
		return LiveState{}, err
	}
	s.logger.Info("ride started", zap.String("user_id", userID))
	return t.State(), nil
}

func (s *Service) Sample(userID string, sample RawSample) (LiveState, error) {
	s.mu.Lock()
	state, err := s.tracker(userID).Sample(sample)
	s.mu.Unlock()
	if err != nil {
		return LiveState{}, err
	}

	s.broadcast(userID, state)
	return state, nil
}

func (s *Service) Stop(userID string) (ride.Summary, error) {
	s.mu.Lock()
	t := s.tracker(userID)
	summary, err := t.Stop(nowFn())
	if err != nil {
		s.mu.Unlock()
		return ride.Summary{}, err
	}
	s.last[userID] = summary
	state := t.State()
	s.mu.Unlock()

	s.broadcast(userID, state)
	s.logger.Info("ride stopped",
		zap.String("user_id", userID),
		zap.Float64("distance_km", summary.TotalDistance),
		zap.Float64("duration_sec", summary.TimeTaken),
		zap.Float64("max_speed_kmh", summary.MaxSpeed))
	return summary, nil
}

func (s *Service) State(userID string) LiveState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker(userID).State()
}

// LastSummary returns the most recent completed ride, which may not have
// been saved to the ride log yet.
func (s *Service) LastSummary(userID string) (ride.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.last[userID]
	return summary, ok
}

func (s *Service) tracker(userID string) *Tracker {
	t, ok := s.trackers[userID]
	if !ok {
		t = NewTracker(s.cfg)
		s.trackers[userID] = t
	}
	return t
}

func (s *Service) broadcast(userID string, state LiveState) {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		s.logger.Warn("marshal live state", zap.Error(err))
		return
	}
	s.hub.Broadcast(userID, payload)
}

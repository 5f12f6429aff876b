package tracker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
)

// Repository persists the whole set of channel states. Save always receives the
// complete set and replaces whatever was stored before.
type Repository interface {
	Load(ctx context.Context) (map[string]*ChannelState, error)
	Save(ctx context.Context, states map[string]*ChannelState) error
}

// Store holds the channel states in memory and writes all of them through the
// repository after every mutation. Each call is serialized; sequences of calls
// are not.
type Store struct {
	mu       sync.Mutex
	repo     Repository
	channels map[string]*ChannelState
	logger   *slog.Logger
}

// NewStore loads the channel states from repo. A repository that cannot be read
// is logged and treated as empty.
func NewStore(ctx context.Context, repo Repository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log := logger.With("component", "task_store")

	channels, err := repo.Load(ctx)
	if err != nil {
		log.WarnContext(ctx, "Failed to load task store, starting empty", "error", err)
		channels = nil
	}
	if channels == nil {
		channels = make(map[string]*ChannelState)
	}
	for id, st := range channels {
		if st == nil {
			delete(channels, id)
			continue
		}
		st.normalize()
	}
	log.InfoContext(ctx, "Task store loaded", "channels", len(channels))

	return &Store{repo: repo, channels: channels, logger: log}
}

// Get returns a copy of the channel's state.
func (s *Store) Get(channelID string) (*ChannelState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.channels[channelID]
	if !ok {
		return nil, false
	}
	return st.Clone(), true
}

// Exists reports whether the channel has a state.
func (s *Store) Exists(channelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.channels[channelID]
	return ok
}

// ChannelIDs returns the ids of all channels with a state, sorted.
func (s *Store) ChannelIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.channels))
	for id := range s.channels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Mutate applies fn to the channel's state and persists the store. When create
// is true a missing channel starts from NewChannelState, otherwise
// ErrChannelNotFound is returned. If fn fails nothing changes. A failed save
// keeps the in-memory change and returns the error. The returned state is a
// copy taken after fn ran.
func (s *Store) Mutate(ctx context.Context, channelID string, create bool, fn func(*ChannelState) error) (*ChannelState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.channels[channelID]
	if !ok {
		if !create {
			return nil, ErrChannelNotFound
		}
		current = NewChannelState()
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.channels[channelID] = next

	if err := s.saveLocked(ctx); err != nil {
		return next.Clone(), err
	}
	return next.Clone(), nil
}

// Reset replaces the channel's state with the empty defaults.
func (s *Store) Reset(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channelID] = NewChannelState()
	return s.saveLocked(ctx)
}

func (s *Store) saveLocked(ctx context.Context) error {
	snapshot := make(map[string]*ChannelState, len(s.channels))
	for id, st := range s.channels {
		snapshot[id] = st.Clone()
	}
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist task store", "error", err)
		return fmt.Errorf("failed to persist task store: %w", err)
	}
	return nil
}

// MemoryRepository keeps channel states in memory only.
type MemoryRepository struct {
	mu     sync.Mutex
	states map[string]*ChannelState
	saves  int
}

// NewMemoryRepository returns a repository preloaded with states.
func NewMemoryRepository(states map[string]*ChannelState) *MemoryRepository {
	return &MemoryRepository{states: states}
}

// Load implements Repository.
func (m *MemoryRepository) Load(_ context.Context) (map[string]*ChannelState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*ChannelState, len(m.states))
	for id, st := range m.states {
		out[id] = st.Clone()
	}
	return out, nil
}

// Save implements Repository.
func (m *MemoryRepository) Save(_ context.Context, states map[string]*ChannelState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = make(map[string]*ChannelState, len(states))
	for id, st := range states {
		m.states[id] = st.Clone()
	}
	m.saves++
	return nil
}

// Saves returns how many times Save was called.
func (m *MemoryRepository) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

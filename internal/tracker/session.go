package tracker

import "sync"

// SetupStage is the step of the setup conversation a user is in.
type SetupStage string

// Setup stages.
const (
	StageTasks SetupStage = "tasks"
	StageDays  SetupStage = "days"
)

// SetupSession is the in-memory conversation state of one user running setup.
type SetupSession struct {
	ChannelID string
	Stage     SetupStage
}

// Sessions holds the setup sessions keyed by user id.
type Sessions struct {
	mu    sync.Mutex
	items map[string]SetupSession
}

// NewSessions returns an empty session table.
func NewSessions() *Sessions {
	return &Sessions{items: make(map[string]SetupSession)}
}

// Start opens (or restarts) a session for the user in the tasks stage.
func (s *Sessions) Start(userID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[userID] = SetupSession{ChannelID: channelID, Stage: StageTasks}
}

// Get returns the user's session.
func (s *Sessions) Get(userID string) (SetupSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[userID]
	return sess, ok
}

// SetStage moves the user's session to stage. It reports false when the user
// has no session.
func (s *Sessions) SetStage(userID string, stage SetupStage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.items[userID]
	if !ok {
		return false
	}
	sess.Stage = stage
	s.items[userID] = sess
	return true
}

// Remove ends the user's session.
func (s *Sessions) Remove(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, userID)
}

// RemoveChannel ends every session targeting the channel and returns how many
// were removed.
func (s *Sessions) RemoveChannel(channelID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for user, sess := range s.items {
		if sess.ChannelID == channelID {
			delete(s.items, user)
			n++
		}
	}
	return n
}

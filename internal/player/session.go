package player

import "sync"

// Querier is the subset of the player that the bridge needs
type Querier interface {
	IsPlaying() (bool, error)
	CurrentTitle() (string, bool, error)
}

// Snapshot is one consistent view of the player
type Snapshot struct {
	Playing bool
	Title   string
}

// Session owns the player connection and serializes access to it
type Session struct {
	mu     sync.Mutex
	client Querier
}

// NewSession takes ownership of client
func NewSession(client Querier) *Session {
	return &Session{client: client}
}

// Snapshot asks whether the player is playing and, if so, for the title.
// Both queries run under one lock so the title matches the play state.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	playing, err := s.client.IsPlaying()
	if err != nil {
		return Snapshot{}, err
	}
	if !playing {
		return Snapshot{}, nil
	}

	title, ok, err := s.client.CurrentTitle()
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{Playing: true}, nil
	}
	return Snapshot{Playing: true, Title: title}, nil
}

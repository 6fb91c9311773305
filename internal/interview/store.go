package interview

import "sync"

// Factory builds the Machine for a new identity.
type Factory func(key string) *Machine

// Store maps identity keys to their own Machine. Machines for different keys
// never share state.
type Store struct {
	mu       sync.Mutex
	machines map[string]*Machine
	factory  Factory
}

func NewStore(factory Factory) *Store {
	return &Store{
		machines: map[string]*Machine{},
		factory:  factory,
	}
}

// Get returns the Machine for key, creating it on first use.
func (s *Store) Get(key string) *Machine {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.machines[key]
	if !ok {
		m = s.factory(key)
		s.machines[key] = m
	}
	return m
}

// Peek returns the snapshot for key without creating a session. An unknown
// key reads as a fresh Initial session.
func (s *Store) Peek(key string) Snapshot {
	s.mu.Lock()
	m, ok := s.machines[key]
	s.mu.Unlock()

	if !ok {
		return newSession().snapshot()
	}
	return m.Snapshot()
}

// Reset starts a new session for key seeded with skills.
func (s *Store) Reset(key string, skills []string) error {
	return s.Get(key).Restart(skills)
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.machines, key)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.machines)
}

package client

import "sync"

// Store holds the local mirror of presence and message history. Every
// mutation builds a fresh snapshot and synchronously notifies all
// subscribers. The mutex is held through notification, so concurrent
// mutators deliver snapshots one at a time and in mutation order;
// listeners must not call back into the store (the snapshot they need
// is the argument).
type Store struct {
	mu   sync.Mutex
	snap Snapshot
	subs map[int]func(Snapshot)
	next int
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Snapshot))}
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers a listener called on every mutation with the new
// snapshot. The returned function removes the listener.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// SetCurrentUser records the identity this client joined as.
func (s *Store) SetCurrentUser(u User) {
	s.mutate(func(snap *Snapshot) {
		cu := u
		snap.CurrentUser = &cu
	})
}

// SetUsers replaces the presence list wholesale.
func (s *Store) SetUsers(users []User) {
	s.mutate(func(snap *Snapshot) {
		snap.Users = append([]User(nil), users...)
	})
}

// AddUser appends a user, replacing an existing record with the same id.
func (s *Store) AddUser(u User) {
	s.mutate(func(snap *Snapshot) {
		users := append([]User(nil), snap.Users...)
		for i := range users {
			if users[i].ID == u.ID {
				users[i] = u
				snap.Users = users
				return
			}
		}
		snap.Users = append(users, u)
	})
}

// RemoveUser drops a user from the presence list.
func (s *Store) RemoveUser(userID string) {
	s.mutate(func(snap *Snapshot) {
		users := make([]User, 0, len(snap.Users))
		for _, u := range snap.Users {
			if u.ID != userID {
				users = append(users, u)
			}
		}
		snap.Users = users
	})
}

// SetMessages replaces the message history wholesale.
func (s *Store) SetMessages(messages []Message) {
	s.mutate(func(snap *Snapshot) {
		snap.Messages = append([]Message(nil), messages...)
	})
}

// AddMessage appends a single message.
func (s *Store) AddMessage(m Message) {
	s.mutate(func(snap *Snapshot) {
		snap.Messages = append(append([]Message(nil), snap.Messages...), m)
	})
}

// SetConnected flips the transport flag.
func (s *Store) SetConnected(connected bool) {
	s.mutate(func(snap *Snapshot) {
		snap.Connected = connected
	})
}

func (s *Store) mutate(apply func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snap
	apply(&next)
	s.snap = next

	for _, fn := range s.subs {
		fn(next)
	}
}

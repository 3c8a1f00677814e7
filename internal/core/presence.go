package core

// Directory tracks which users are known and whether they are online.
// It is owned by the hub goroutine and must not be shared without
// external synchronization.
type Directory struct {
	users  map[string]*User
	order  []string          // user ids in first-seen order
	byConn map[string]string // connection id -> user id
	conns  map[string]string // user id -> current connection id
}

// NewDirectory constructs an empty presence directory.
func NewDirectory() *Directory {
	return &Directory{
		users:  make(map[string]*User),
		byConn: make(map[string]string),
		conns:  make(map[string]string),
	}
}

// Join marks the user online and binds connID as its current connection.
// Joining an already-known id refreshes the record in place; the previous
// connection binding, if any, is dropped (last writer wins) but the old
// connection itself is left open. If connID was bound to a different user,
// that user loses its only connection and goes offline.
func (d *Directory) Join(u User, connID string) {
	if prev, ok := d.byConn[connID]; ok && prev != u.ID {
		delete(d.conns, prev)
		d.users[prev].Online = false
	}

	rec, known := d.users[u.ID]
	if !known {
		rec = &User{ID: u.ID}
		d.users[u.ID] = rec
		d.order = append(d.order, u.ID)
	}
	rec.DisplayName = u.DisplayName
	rec.Online = true

	if old, ok := d.conns[u.ID]; ok && old != connID {
		delete(d.byConn, old)
	}
	d.conns[u.ID] = connID
	d.byConn[connID] = u.ID
}

// Leave resolves connID to its bound user, marks that user offline and
// returns the updated record. A connection that never completed a join
// resolves to nil; that is a no-op, not an error.
func (d *Directory) Leave(connID string) *User {
	userID, ok := d.byConn[connID]
	if !ok {
		return nil
	}
	delete(d.byConn, connID)
	delete(d.conns, userID)

	rec := d.users[userID]
	rec.Online = false
	out := *rec
	return &out
}

// Get returns a copy of the record for userID, if known.
func (d *Directory) Get(userID string) (User, bool) {
	rec, ok := d.users[userID]
	if !ok {
		return User{}, false
	}
	return *rec, true
}

// Snapshot returns every known user, online or not, in first-seen order.
func (d *Directory) Snapshot() []User {
	out := make([]User, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, *d.users[id])
	}
	return out
}

package identity

import (
	"context"
	"sync"
	"time"

	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
)

// User is the display projection of an account maintained upstream.
type User struct {
	ID          id.UserID `json:"id"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

// Directory resolves user ids to display data. The leaderboard uses it and
// silently drops entries it cannot resolve.
type Directory interface {
	Lookup(ctx context.Context, userID id.UserID) (User, error)
}

// InMemoryDirectory serves a fixed set of users; tests and dev mode use it.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	users map[id.UserID]User
}

func NewInMemoryDirectory(users ...User) *InMemoryDirectory {
	d := &InMemoryDirectory{users: make(map[id.UserID]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// Put adds or replaces a user.
func (d *InMemoryDirectory) Put(u User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

// Delete removes a user, simulating upstream account deletion.
func (d *InMemoryDirectory) Delete(userID id.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, userID)
}

func (d *InMemoryDirectory) Lookup(_ context.Context, userID id.UserID) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return u, nil
}

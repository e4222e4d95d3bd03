package identitystub

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/dashboard/internal/domain"
)

// User is an account held by the stub.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         domain.RegisterRole
	BirthDate    string
	NationalID   string
	PasswordHash string
	Confirmed    bool
	CreatedAt    time.Time
}

// Principal is the public view of u.
func (u User) Principal() domain.Principal {
	return domain.Principal{ID: u.ID, Name: u.Name, Email: u.Email}
}

// userStore is an in-memory user table keyed by lower-cased email.
type userStore struct {
	mu      sync.RWMutex
	byEmail map[string]*User
	byID    map[string]*User
}

func newUserStore() *userStore {
	return &userStore{byEmail: make(map[string]*User), byID: make(map[string]*User)}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// create inserts u and assigns its id. It reports false when the email is taken.
func (s *userStore) create(u *User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := emailKey(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return false
	}
	u.ID = uuid.NewString()
	s.byEmail[key] = u
	s.byID[u.ID] = u
	return true
}

func (s *userStore) byEmailAddr(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byEmail[emailKey(email)]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (s *userStore) get(id string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

func (s *userStore) update(id string, fn func(*User)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if ok {
		fn(u)
	}
	return ok
}

func (s *userStore) list() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, *u)
	}
	return out
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jjudge-oj/usersapi/types"
)

// MemoryUserRepository keeps users in process memory. It enforces the same
// email uniqueness as the Postgres schema.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	nextID int
	users  map[int]types.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		nextID: 1,
		users:  make(map[int]types.User),
	}
}

func (r *MemoryUserRepository) List(ctx context.Context) ([]types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.Email == email })
}

func (r *MemoryUserRepository) GetByPasswordHash(ctx context.Context, hash string) (types.User, error) {
	return r.find(func(u types.User) bool { return u.PasswordHash == hash })
}

func (r *MemoryUserRepository) find(match func(types.User) bool) (types.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Lowest id wins so lookups are deterministic.
	var (
		found types.User
		ok    bool
	)
	for _, user := range r.users {
		if match(user) && (!ok || user.ID < found.ID) {
			found, ok = user, true
		}
	}
	if !ok {
		return types.User{}, ErrNotFound
	}
	return found, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, name, email, passwordHash string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(email, 0) {
		return types.User{}, ErrDuplicateEmail
	}

	now := time.Now()
	user := types.User{
		ID:           r.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user
	r.nextID++
	return user, nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, id int, name, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	if r.emailTakenLocked(email, id) {
		return ErrDuplicateEmail
	}
	user.Name = name
	user.Email = email
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now()
	r.users[id] = user
	return nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) emailTakenLocked(email string, exceptID int) bool {
	for _, user := range r.users {
		if user.Email == email && user.ID != exceptID {
			return true
		}
	}
	return false
}

// Package memory keeps users in process memory, for STORE_DRIVER=memory and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"shift-exchange-backend/internal/features/user/models"
	"shift-exchange-backend/internal/features/user/repository"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[int64]models.User
	now   func() time.Time
}

func NewMemoryRepository() repository.UserRepository {
	return &memoryRepository{users: make(map[int64]models.User), now: time.Now}
}

func (r *memoryRepository) Upsert(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cur, ok := r.users[u.TgID]
	if ok {
		cur.Username = u.Username
		cur.UpdatedAt = now
	} else {
		cur = models.User{
			TgID:      u.TgID,
			Username:  u.Username,
			FullName:  u.FullName,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	r.users[u.TgID] = cur
	return &cur, nil
}

func (r *memoryRepository) GetByTgID(_ context.Context, tgID int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[tgID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

func (r *memoryRepository) UpdateProfile(_ context.Context, tgID int64, fullName, department string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[tgID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	u.FullName = fullName
	u.Department = department
	u.UpdatedAt = r.now()
	r.users[tgID] = u
	return &u, nil
}

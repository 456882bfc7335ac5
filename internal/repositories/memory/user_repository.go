package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

var _ repositories.UserRepository = (*UserRepository)(nil)

// UserRepository keeps users in memory, indexed by id and username
type UserRepository struct {
	mu         sync.RWMutex
	byID       map[string]models.User
	byUsername map[string]string
}

// NewUserRepository creates an empty UserRepository
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[string]models.User),
		byUsername: make(map[string]string),
	}
}

// Create inserts a new user
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[user.Username]; taken {
		return repositories.ErrDuplicate
	}
	user.ID = utils.NewID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = *user
	r.byUsername[user.Username] = user.ID
	return nil
}

// FindByUsername finds a user by username
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	user := r.byID[id]
	return &user, nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &user, nil
}

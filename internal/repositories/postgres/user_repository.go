package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ArowuTest/daily-lottery-backend/internal/models"
	"github.com/ArowuTest/daily-lottery-backend/internal/repositories"
	"github.com/ArowuTest/daily-lottery-backend/internal/utils"
)

var _ repositories.UserRepository = (*UserRepository)(nil)

const userColumns = `id, username, password_hash, full_name, email_address, phone_number, created_at, updated_at`

// UserRepository handles PostgreSQL operations for User
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.ID = utils.NewID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO app_user (`+userColumns+`)
		 VALUES (:id, :username, :password_hash, :full_name, :email_address, :phone_number, :created_at, :updated_at)`,
		user)
	return translate(err)
}

// FindByUsername finds a user by username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM app_user WHERE username = $1`, username)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// FindByID finds a user by ID
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

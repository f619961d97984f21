package storage

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"envisonet-server-go/internal/platform/errors"
)

// UserRepository handles account persistence and credential checks.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create registers a new account with a bcrypt-hashed password.
func (r *UserRepository) Create(ctx context.Context, username, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.create", "failed to hash password", err)
	}

	user := &User{Username: username, Password: string(hash)}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, errors.Wrap(errors.KindStorage, "user.create", "failed to create user", err)
	}
	return user, nil
}

// FindByUsername returns nil without error when the account does not exist.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "user.find_by_username", "failed to find user", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(errors.KindStorage, "user.find_by_id", "failed to find user", err)
	}
	return &user, nil
}

// Authenticate verifies the password against the stored hash and returns
// the account, or nil when either the user is unknown or the password is
// wrong, so callers cannot distinguish the two.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := r.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil
	}
	return user, nil
}

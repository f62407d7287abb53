package repository

import (
	"context"

	"skill-platform/internal/domain/model"
)

type UserRepository interface {
	// Create inserts the user and fills in the assigned ID.
	// Returns domain.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, tx Tx, u *model.User) error
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id int64) (*model.User, error)
}

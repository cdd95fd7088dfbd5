package user

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string, balanceCents int64) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListMembers(ctx context.Context) ([]User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

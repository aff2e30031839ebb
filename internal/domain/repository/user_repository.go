package repository

import (
	"context"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	GetByUsuario(ctx context.Context, usuario string) (*entity.User, error)
}

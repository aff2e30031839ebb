package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/application/auth"
	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/testutil/memstore"
	"github.com/jhoicas/Rexus-api/pkg/jwt"
)

const secret = "test-secret-32-bytes-minimo-xxxx"

func newAuth(t *testing.T) (*auth.AuthUseCase, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: secret, ExpMinutes: 60, Issuer: "rexus-api"}), store
}

func TestRegisterUser_RolPorDefecto(t *testing.T) {
	uc, _ := newAuth(t)

	u, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Usuario: " maria ", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, "maria", u.Usuario)
	assert.Equal(t, "maria", u.Nombre)
	assert.Equal(t, entity.RoleVendedor, u.Role)
	assert.Equal(t, "active", u.Status)
}

func TestRegisterUser_Duplicado(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()

	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Usuario: "maria", Password: "secreta123"})
	require.NoError(t, err)
	_, err = uc.RegisterUser(ctx, dto.RegisterRequest{Usuario: "maria", Password: "otraclave9"})
	assert.True(t, errors.Is(err, domain.ErrUserAlreadyExists))
}

func TestRegisterUser_Validaciones(t *testing.T) {
	uc, _ := newAuth(t)

	for name, in := range map[string]dto.RegisterRequest{
		"usuario corto":  {Usuario: "ab", Password: "secreta123"},
		"password corto": {Usuario: "maria", Password: "1234567"},
		"rol inválido":   {Usuario: "maria", Password: "secreta123", Role: "root"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.RegisterUser(context.Background(), in)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestLogin_GeneraTokenConRol(t *testing.T) {
	uc, _ := newAuth(t)
	ctx := context.Background()
	u, err := uc.RegisterUser(ctx, dto.RegisterRequest{Usuario: "jefe", Password: "secreta123", Role: entity.RoleSupervisor})
	require.NoError(t, err)

	out, err := uc.Login(ctx, dto.LoginRequest{Usuario: "jefe", Password: "secreta123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, out.User.ID)

	claims, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, "jefe", claims.Usuario)
	assert.Equal(t, entity.RoleSupervisor, claims.Role)
}

func TestLogin_Errores(t *testing.T) {
	uc, store := newAuth(t)
	ctx := context.Background()
	_, err := uc.RegisterUser(ctx, dto.RegisterRequest{Usuario: "jefe", Password: "secreta123"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Usuario: "nadie", Password: "secreta123"})
	assert.True(t, errors.Is(err, domain.ErrUserNotFound))

	_, err = uc.Login(ctx, dto.LoginRequest{Usuario: "jefe", Password: "incorrecta"})
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))

	store.SetUserStatus("jefe", "inactive")
	_, err = uc.Login(ctx, dto.LoginRequest{Usuario: "jefe", Password: "secreta123"})
	assert.True(t, errors.Is(err, domain.ErrForbidden))
}

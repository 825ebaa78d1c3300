package service_test

import (
	"context"
	"testing"

	"github.com/pirela/sistema-guia/internal/config"
	"github.com/pirela/sistema-guia/internal/dto"
	"github.com/pirela/sistema-guia/internal/model"
	"github.com/pirela/sistema-guia/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthFixture(t *testing.T) (service.AuthService, *stubUsuarioRepo) {
	t.Helper()
	repo := newStubUsuarioRepo()
	cfg := &config.Config{JWTSecret: "secreto-de-test", JWTExpirationHours: 1, JWTRefreshHours: 24}
	return service.NewAuthService(repo, cfg), repo
}

func TestLoginYRefresh(t *testing.T) {
	svc, repo := newAuthFixture(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), 4)
	require.NoError(t, err)
	repo.add(&model.Usuario{Username: "admin", Nombre: "Admin", Rol: model.RolAdministrador, Activo: true, PasswordHash: string(hash)})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, model.RolAdministrador, resp.User.Rol)

	refrescado, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refrescado.AccessToken)
	assert.Equal(t, resp.User.ID, refrescado.User.ID)
}

func TestLoginPasswordIncorrecto(t *testing.T) {
	svc, repo := newAuthFixture(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), 4)
	repo.add(&model.Usuario{Username: "admin", Nombre: "Admin", Rol: model.RolAdministrador, Activo: true, PasswordHash: string(hash)})

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "admin", Password: "equivocado"})
	assert.Error(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "fantasma", Password: "1234"})
	assert.Error(t, err)
}

func TestRefreshUsuarioDesactivadoRechazado(t *testing.T) {
	svc, repo := newAuthFixture(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("1234"), 4)
	u := repo.add(&model.Usuario{Username: "moto", Nombre: "Carlos", Rol: model.RolMotorizado, Activo: true, PasswordHash: string(hash)})

	resp, err := svc.Login(context.Background(), dto.LoginRequest{Username: "moto", Password: "1234"})
	require.NoError(t, err)

	u.Activo = false
	_, err = svc.Refresh(context.Background(), resp.RefreshToken)
	assert.Error(t, err, "un refresh emitido antes de la desactivación deja de servir")
}

func TestRefreshTokenBasuraRechazado(t *testing.T) {
	svc, _ := newAuthFixture(t)
	_, err := svc.Refresh(context.Background(), "no-es-un-jwt")
	assert.Error(t, err)
}

func TestCrearYActualizarUsuario(t *testing.T) {
	svc, repo := newAuthFixture(t)

	creado, err := svc.CrearUsuario(context.Background(), dto.CrearUsuarioRequest{
		Username: "nuevo", Password: "123456", Nombre: "Nuevo", Rol: model.RolMotorizado,
	})
	require.NoError(t, err)
	assert.True(t, creado.Activo)

	// El hash nunca viaja en la respuesta y el password queda hasheado.
	u, err := repo.FindByUsername(context.Background(), "nuevo")
	require.NoError(t, err)
	assert.NotEqual(t, "123456", u.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("123456")))

	nombre := "Renombrado"
	_, err = svc.ActualizarUsuario(context.Background(), u.ID, dto.ActualizarUsuarioRequest{Nombre: &nombre})
	require.NoError(t, err)
	assert.Equal(t, "Renombrado", repo.usuarios[u.ID].Nombre)
}

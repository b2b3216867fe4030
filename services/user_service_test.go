package services

import (
	"context"
	"immigration_crm_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Create(ctx, CreateUserInput{
		FirstName:            "Javier",
		LastName:             "Ruiz",
		Email:                " Javier.Ruiz@Despacho.es ",
		Password:             testPassword,
		Role:                 models.RoleLawyer,
		CommissionPercentage: floatPtr(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "javier.ruiz@despacho.es", user.Email)
	assert.Equal(t, "Javier Ruiz", user.FullName)
	assert.True(t, user.IsActive)
	require.NotNil(t, user.CommissionPercentage)

	var stored models.User
	require.NoError(t, env.db.First(&stored, "id = ?", user.ID).Error)
	assert.NotEqual(t, testPassword, stored.Password)
	assert.True(t, CheckPassword(testPassword, stored.Password))

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.users.Create(ctx, CreateUserInput{FirstName: "J", LastName: "R", Email: "javier.ruiz@despacho.es", Password: testPassword})
		assert.ErrorIs(t, err, ErrUserEmailTaken)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := env.users.Create(ctx, CreateUserInput{FirstName: "J", LastName: "R", Email: "weak@despacho.es", Password: "short"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "password", ve.Field)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := env.users.Create(ctx, CreateUserInput{FirstName: "J", LastName: "R", Email: "role@despacho.es", Password: testPassword, Role: "owner"})
		assert.True(t, IsValidationError(err))
	})

	t.Run("bad commission", func(t *testing.T) {
		_, err := env.users.Create(ctx, CreateUserInput{FirstName: "J", LastName: "R", Email: "rate@despacho.es", Password: testPassword, CommissionPercentage: floatPtr(150)})
		assert.True(t, IsValidationError(err))
	})
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "login@despacho.es", models.RoleAdmin)

	session, authed, err := env.users.Authenticate(ctx, "LOGIN@despacho.es", testPassword, "10.0.0.1", "agent")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)
	assert.NotNil(t, authed.LastLoginAt)
	assert.NotEmpty(t, session.Token)

	_, validated, err := env.users.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, validated.ID)

	_, _, err = env.users.Authenticate(ctx, "login@despacho.es", "Wrong#Password1", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = env.users.Authenticate(ctx, "nobody@despacho.es", testPassword, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.users.Logout(ctx, session.Token))
	_, _, err = env.users.ValidateSession(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeactivateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "leaving@despacho.es", models.RoleLawyer)

	session, _, err := env.users.Authenticate(ctx, "leaving@despacho.es", testPassword, "", "")
	require.NoError(t, err)

	require.NoError(t, env.users.Deactivate(ctx, user.ID))

	_, _, err = env.users.ValidateSession(ctx, session.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, _, err = env.users.Authenticate(ctx, "leaving@despacho.es", testPassword, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	lawyers, err := env.users.ListLawyers(ctx)
	require.NoError(t, err)
	assert.Empty(t, lawyers)

	assert.ErrorIs(t, env.users.Deactivate(ctx, "missing"), ErrUserNotFound)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "rates@despacho.es", models.RoleStaff)

	updated, err := env.users.Update(ctx, user.ID, UpdateUserInput{
		Role:                 stringPtr(models.RoleLawyer),
		CommissionPercentage: floatPtr(12.5),
		HourlyRate:           floatPtr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleLawyer, updated.Role)
	assert.Equal(t, 12.5, *updated.CommissionPercentage)
	assert.Equal(t, 60.0, *updated.HourlyRate)

	lawyers, err := env.users.ListLawyers(ctx)
	require.NoError(t, err)
	require.Len(t, lawyers, 1)

	_, err = env.users.Update(ctx, user.ID, UpdateUserInput{HourlyRate: floatPtr(-5)})
	assert.True(t, IsValidationError(err))
	_, err = env.users.Update(ctx, user.ID, UpdateUserInput{FirstName: stringPtr(" ")})
	assert.True(t, IsValidationError(err))
}

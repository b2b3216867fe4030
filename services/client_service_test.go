package services

import (
	"context"
	"fmt"
	"immigration_crm_go/events"
	"immigration_crm_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateClientAssignsSequentialExpedients(t *testing.T) {
	env := newTestEnv(t)

	var created []events.ClientCreated
	env.bus.Listen(events.TopicDomain, func(evt events.Event) {
		if p, ok := evt.Payload.(events.ClientCreated); ok {
			created = append(created, p)
		}
	})

	seen := map[int]bool{}
	for i := 1; i <= 5; i++ {
		client := env.createClient(t, fmt.Sprintf("client%d@example.com", i))
		assert.Equal(t, i, client.ExpedientNumber)
		assert.False(t, seen[client.ExpedientNumber])
		seen[client.ExpedientNumber] = true
	}

	require.Len(t, created, 5)
	assert.Equal(t, 5, created[4].ExpedientNumber)
	assert.Equal(t, "Amina Benali", created[0].FullName)
}

func TestCreateClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("normalizes input", func(t *testing.T) {
		client, err := env.clients.Create(ctx, ClientInput{
			FirstName:      "  Omar ",
			LastName:       "<script>x</script>Haddad",
			Email:          " Omar.Haddad@Example.com ",
			PassportNumber: "ab123456",
			Notes:          "Cliente de <i>O'Donnell</i>",
		})
		require.NoError(t, err)
		assert.Equal(t, "Omar", client.FirstName)
		assert.Equal(t, "Haddad", client.LastName)
		assert.Equal(t, "omar.haddad@example.com", client.Email)
		assert.Equal(t, "AB123456", client.PassportNumber)
		assert.Equal(t, "Cliente de O'Donnell", client.Notes)
		assert.Equal(t, models.ClientStatusPending, client.Status)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := env.clients.Create(ctx, ClientInput{FirstName: "Otro", LastName: "Cliente", Email: "omar.haddad@example.com"})
		assert.ErrorIs(t, err, ErrClientEmailTaken)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := env.clients.Create(ctx, ClientInput{FirstName: "Sin", LastName: "Correo", Email: "no-es-un-correo"})
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "email", ve.Field)

		_, err = env.clients.Create(ctx, ClientInput{LastName: "Nombre", Email: "x@example.com"})
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "firstName", ve.Field)
	})
}

func TestListClients(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.createClient(t, "first@example.com")
	_, err := env.clients.Create(ctx, ClientInput{FirstName: "Ivan", LastName: "Petrov", Email: "ivan@example.com", PassportNumber: "RU998877"})
	require.NoError(t, err)
	require.NoError(t, env.clients.SetStatus(ctx, first.ID, models.ClientStatusInactive))

	all, err := env.clients.List(ctx, ClientFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].ExpedientNumber)

	t.Run("search by passport", func(t *testing.T) {
		found, err := env.clients.List(ctx, ClientFilters{Search: "ru9988"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Ivan", found[0].FirstName)
	})

	t.Run("filter by status", func(t *testing.T) {
		inactive, err := env.clients.List(ctx, ClientFilters{Status: models.ClientStatusInactive})
		require.NoError(t, err)
		require.Len(t, inactive, 1)
		assert.Equal(t, first.ID, inactive[0].ID)
	})
}

func TestUpdateClient(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := env.createClient(t, "update-client@example.com")
	env.createClient(t, "taken@example.com")

	updated, err := env.clients.Update(ctx, client.ID, ClientInput{
		FirstName:       "Amina",
		LastName:        "Benali El Idrissi",
		Email:           "update-client@example.com",
		CityOfResidence: "Madrid",
	})
	require.NoError(t, err)
	assert.Equal(t, "Benali El Idrissi", updated.LastName)
	assert.Equal(t, "Madrid", updated.CityOfResidence)
	assert.Equal(t, client.ExpedientNumber, updated.ExpedientNumber)

	_, err = env.clients.Update(ctx, client.ID, ClientInput{FirstName: "Amina", LastName: "Benali", Email: "taken@example.com"})
	assert.ErrorIs(t, err, ErrClientEmailTaken)

	_, err = env.clients.Update(ctx, "missing", ClientInput{FirstName: "A", LastName: "B", Email: "c@example.com"})
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestClientStatusAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	withCase := env.createClient(t, "with-case@example.com")
	lonely := env.createClient(t, "lonely@example.com")
	service := env.createService(t, "Nacionalidad")
	env.createCase(t, withCase.ID, service.ID, 500, 0, march2026, nil)

	assert.True(t, IsValidationError(env.clients.SetStatus(ctx, lonely.ID, "archived")))
	assert.ErrorIs(t, env.clients.SetStatus(ctx, "missing", models.ClientStatusActive), ErrClientNotFound)

	assert.ErrorIs(t, env.clients.Delete(ctx, withCase.ID), ErrClientHasCases)
	require.NoError(t, env.clients.Delete(ctx, lonely.ID))

	_, err := env.clients.FindByEmail(ctx, "LONELY@example.com")
	assert.ErrorIs(t, err, ErrClientNotFound)

	found, err := env.clients.FindByEmail(ctx, "WITH-CASE@example.com")
	require.NoError(t, err)
	assert.Equal(t, withCase.ID, found.ID)
}

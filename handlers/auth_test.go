package handlers

import (
	"immigration_crm_go/domain"
	"immigration_crm_go/middleware"
	"immigration_crm_go/models"
	"immigration_crm_go/services"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "lucia@despacho.es", models.RoleLawyer)

	t.Run("Success", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "lucia@despacho.es", "password": testPassword,
		})
		requireStatus(t, rec, http.StatusOK)

		var resp loginResponse
		decode(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		require.NotNil(t, resp.User)
		assert.Equal(t, "lucia@despacho.es", resp.User.Email)

		var cookie *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == middleware.SessionCookieName {
				cookie = c
			}
		}
		require.NotNil(t, cookie)
		assert.Equal(t, resp.Token, cookie.Value)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "lucia@despacho.es", "password": "incorrecta",
		})
		requireStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/login", "", map[string]string{"password": testPassword})
		requireStatus(t, rec, http.StatusBadRequest)

		var body middleware.ErrorResponse
		decode(t, rec, &body)
		assert.Equal(t, "email", body.Field)
	})
}

func TestMeAndLogout(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "lucia@despacho.es", models.RoleLawyer)
	token := s.login(t, "lucia@despacho.es")

	rec := s.do(t, http.MethodGet, "/api/me", "", nil)
	requireStatus(t, rec, http.StatusUnauthorized)

	rec = s.do(t, http.MethodGet, "/api/me", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var me domain.User
	decode(t, rec, &me)
	assert.Equal(t, models.RoleLawyer, me.Role)
	assert.Equal(t, "Lucía Martín", me.FullName)

	rec = s.do(t, http.MethodPost, "/api/logout", token, nil)
	requireStatus(t, rec, http.StatusNoContent)

	rec = s.do(t, http.MethodGet, "/api/me", token, nil)
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	adminToken := s.admin(t)
	s.createUser(t, "lucia@despacho.es", models.RoleLawyer)
	lawyerToken := s.login(t, "lucia@despacho.es")

	t.Run("LawyerForbidden", func(t *testing.T) {
		requireStatus(t, s.do(t, http.MethodGet, "/api/users", lawyerToken, nil), http.StatusForbidden)
		requireStatus(t, s.do(t, http.MethodGet, "/api/accounting/summaries", lawyerToken, nil), http.StatusForbidden)
	})

	t.Run("CreateAndUpdateUser", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/users", adminToken, map[string]interface{}{
			"firstName": "Pablo", "lastName": "Ruiz", "email": "pablo@despacho.es",
			"password": testPassword, "role": "lawyer", "hourlyRate": 60,
		})
		requireStatus(t, rec, http.StatusCreated)
		var created domain.User
		decode(t, rec, &created)
		require.NotNil(t, created.HourlyRate)
		assert.Equal(t, 60.0, *created.HourlyRate)

		rec = s.do(t, http.MethodPut, "/api/users/"+created.ID, adminToken, map[string]interface{}{
			"commissionPercentage": 12.5,
		})
		requireStatus(t, rec, http.StatusOK)
		var updated domain.User
		decode(t, rec, &updated)
		require.NotNil(t, updated.CommissionPercentage)
		assert.Equal(t, 12.5, *updated.CommissionPercentage)

		rec = s.do(t, http.MethodPost, "/api/users", adminToken, map[string]interface{}{
			"firstName": "Otro", "lastName": "Ruiz", "email": "pablo@despacho.es",
			"password": testPassword, "role": "lawyer",
		})
		requireStatus(t, rec, http.StatusConflict)
	})

	t.Run("InvalidRole", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/users", adminToken, map[string]interface{}{
			"firstName": "Ana", "lastName": "Gil", "email": "ana@despacho.es",
			"password": testPassword, "role": "owner",
		})
		requireStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("LawyersListedForEveryone", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/lawyers", lawyerToken, nil)
		requireStatus(t, rec, http.StatusOK)
		var lawyers []domain.User
		decode(t, rec, &lawyers)
		assert.NotEmpty(t, lawyers)
		for _, l := range lawyers {
			assert.Equal(t, models.RoleLawyer, l.Role)
		}
	})
}

func TestFailedLoginAlerts(t *testing.T) {
	s := newTestServer(t)
	token := s.admin(t)

	for i := 0; i < 5; i++ {
		rec := s.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "admin@despacho.es", "password": "incorrecta",
		})
		requireStatus(t, rec, http.StatusUnauthorized)
	}

	rec := s.do(t, http.MethodGet, "/api/security/alerts", token, nil)
	requireStatus(t, rec, http.StatusOK)
	var alerts []services.SecurityAlert
	decode(t, rec, &alerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "CRITICAL", alerts[0].Level)
}

package services

import (
	"context"
	"errors"
	"immigration_crm_go/models"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// SeedAdminFromEnv creates the first admin from ADMIN_EMAIL and ADMIN_PASSWORD.
// It does nothing when the variables are unset or an admin already exists.
func SeedAdminFromEnv(ctx context.Context, users *UserService, log logrus.FieldLogger) error {
	email := strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	admins, err := users.List(ctx, models.RoleAdmin, false)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		log.Info("[SEED] Admin user already exists, skipping seed")
		return nil
	}

	firstName := os.Getenv("ADMIN_FIRST_NAME")
	if firstName == "" {
		firstName = "Administrador"
	}
	lastName := os.Getenv("ADMIN_LAST_NAME")
	if lastName == "" {
		lastName = "Despacho"
	}

	_, err = users.Create(ctx, CreateUserInput{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Password:  password,
		Role:      models.RoleAdmin,
	})
	if errors.Is(err, ErrUserEmailTaken) {
		log.WithField("email", email).Warn("[SEED] A user with the admin email already exists, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}

	log.WithField("email", email).Info("[SEED] Created admin user")
	return nil
}

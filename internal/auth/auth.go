package auth

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigredeye/raport/internal/database"
	lf "github.com/bigredeye/raport/internal/logfield"
	"github.com/bigredeye/raport/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordMismatch   = errors.New("new password and confirmation differ")
)

type Gate struct {
	db     *database.DataBase
	logger *zap.Logger
	cost   int
}

func NewGate(db *database.DataBase, logger *zap.Logger) *Gate {
	return &Gate{db, logger.With(lf.Module("auth")), bcrypt.DefaultCost}
}

func (g *Gate) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return "", errors.Wrap(err, "Failed to hash password")
	}
	return string(hash), nil
}

// SeedDefault creates the default admin account if no admin exists yet.
func (g *Gate) SeedDefault(username, password string) error {
	count, err := g.db.CountAdmins()
	if err != nil {
		return errors.Wrap(err, "Failed to count admins")
	}
	if count > 0 {
		return nil
	}

	hash, err := g.hash(password)
	if err != nil {
		return err
	}
	err = g.db.AddAdmin(&models.Admin{Username: username, PasswordHash: hash})
	if database.IsDuplicateKey(err) {
		// another process seeded it first
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "Failed to seed admin")
	}

	g.logger.Info("Seeded default admin", lf.Username(username))
	return nil
}

func (g *Gate) Login(username, password string) (*models.Admin, error) {
	admin, err := g.db.FindAdminByUsername(username)
	if errors.Is(err, database.ErrNotFound) {
		g.logger.Info("Login for unknown admin", lf.Username(username))
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to find admin")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		g.logger.Info("Login with wrong password", lf.Username(username))
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}

// ChangePassword replaces the hash only after the confirmation matches and
// the current password verifies.
func (g *Gate) ChangePassword(username, current, next, confirm string) error {
	if next != confirm {
		return ErrPasswordMismatch
	}

	if _, err := g.Login(username, current); err != nil {
		return err
	}

	hash, err := g.hash(next)
	if err != nil {
		return err
	}
	if err := g.db.SetAdminPassword(username, hash); err != nil {
		return errors.Wrap(err, "Failed to update password")
	}

	g.logger.Info("Changed admin password", lf.Username(username))
	return nil
}

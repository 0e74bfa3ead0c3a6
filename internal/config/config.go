package config

import (
	"fmt"

	"github.com/docker/go-units"
	"github.com/pkg/errors"

	"github.com/bigredeye/raport/pkg/conf"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Endpoints struct {
		Home           string
		Result         string
		Login          string
		Logout         string
		Admin          string
		Create         string
		Edit           string
		Delete         string
		ChangePassword string
		Uploads        string
		Assets         string
	}

	Server struct {
		ListenAddress string
		Cookies       struct {
			AuthenticationKey string
			EncryptionKey     string
			Secure            bool
		}
		MaxRequestSize string
	}

	DataBase struct {
		Driver string
		Host   string
		Port   uint16
		User   string
		Pass   string
		Name   string
		Path   string
	}

	Uploads struct {
		Dir        string
		MaxSize    string
		Extensions []string
	}

	Admin struct {
		DefaultUsername string
		DefaultPassword string
	}

	Log struct {
		Production bool
		File       string
	}
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"Endpoints.Home":           "/",
		"Endpoints.Result":         "/result",
		"Endpoints.Login":          "/login",
		"Endpoints.Logout":         "/logout",
		"Endpoints.Admin":          "/admin",
		"Endpoints.Create":         "/tambah",
		"Endpoints.Edit":           "/edit",
		"Endpoints.Delete":         "/hapus",
		"Endpoints.ChangePassword": "/change-password",
		"Endpoints.Uploads":        "/static/uploads",
		"Endpoints.Assets":         "/assets",

		"Server.ListenAddress":  ":5000",
		"Server.MaxRequestSize": "8MiB",

		"DataBase.Driver": DriverSQLite,
		"DataBase.Port":   5432,
		"DataBase.Path":   "database.db",

		"Uploads.Dir":        "static/uploads",
		"Uploads.MaxSize":    "2MiB",
		"Uploads.Extensions": []string{"png", "jpg", "jpeg", "gif"},

		"Admin.DefaultUsername": "admin",
		"Admin.DefaultPassword": "admin123",
	}
}

// Default is the configuration used when neither a file nor env overrides anything.
func Default() (*Config, error) {
	config := &Config{}
	if err := conf.ParseConfig(config, conf.Defaults(defaults())); err != nil {
		return nil, errors.Wrap(err, "Failed to build default config")
	}
	if err := config.validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid default config")
	}
	return config, nil
}

func ParseConfig(path string) (*Config, error) {
	config := &Config{}
	err := conf.ParseConfig(config,
		conf.EnvPrefix("RAPORT"),
		conf.ConfigFile(path),
		conf.Defaults(defaults()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to parse config")
	}
	if err := config.validate(); err != nil {
		return nil, errors.Wrap(err, "Invalid config")
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.DataBase.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return errors.Errorf("unknown database driver %q", c.DataBase.Driver)
	}
	if _, err := c.PhotoMaxSize(); err != nil {
		return err
	}
	if _, err := c.RequestMaxSize(); err != nil {
		return err
	}
	if len(c.Uploads.Extensions) == 0 {
		return errors.New("no photo extensions allowed")
	}
	return nil
}

// DSN builds the gorm connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DataBase.Driver == DriverSQLite {
		return c.DataBase.Path
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DataBase.Host, c.DataBase.User, c.DataBase.Pass, c.DataBase.Name, c.DataBase.Port)
}

func (c *Config) PhotoMaxSize() (int64, error) {
	size, err := units.RAMInBytes(c.Uploads.MaxSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid Uploads.MaxSize %q", c.Uploads.MaxSize)
	}
	return size, nil
}

func (c *Config) RequestMaxSize() (int64, error) {
	size, err := units.RAMInBytes(c.Server.MaxRequestSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid Server.MaxRequestSize %q", c.Server.MaxRequestSize)
	}
	return size, nil
}

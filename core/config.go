package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Storage backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

type (
	Config struct {
		Env          string
		Debug        bool
		TestMode     bool
		AppName      string
		Build        string
		SecretKey    string
		RollbarToken string
		WorkDir      string
		Server       ServerConfig
		Database     DatabaseConfig
		Admin        AdminConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		SessionMaxAge   time.Duration
		SessionCookie   string
		SecureCookies   bool
		DisableReqLogs  bool
		BodyLimit       string
	}

	DatabaseConfig struct {
		Backend       string
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	// AdminConfig describes the admin account seeded at startup, if any.
	AdminConfig struct {
		Username string
		Password string
		FullName string
	}
)

func (db DatabaseConfig) Address() string {
	return net.JoinHostPort(db.Host, db.Port)
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Shule")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "n7#k2w(q8v)z&j9x$+41=hs@e0c!b5ru3m^p6ty-gd")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.sessionMaxAge", 7*24*time.Hour)
	v.SetDefault("server.sessionCookie", "shule_session")
	v.SetDefault("server.secureCookies", false)
	v.SetDefault("server.disableReqLogs", false)
	v.SetDefault("server.bodyLimit", "1M")

	v.SetDefault("database.backend", BackendMemory)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "shule")
	v.SetDefault("database.user", "shule")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("admin.username", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.fullName", "Administrator")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	wd := Getwd()
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		WorkDir:      wd,
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			SessionMaxAge:   v.GetDuration("server.sessionMaxAge"),
			SessionCookie:   v.GetString("server.sessionCookie"),
			SecureCookies:   v.GetBool("server.secureCookies"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
			BodyLimit:       v.GetString("server.bodyLimit"),
		},
		Database: DatabaseConfig{
			Backend:       strings.ToLower(v.GetString("database.backend")),
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Admin: AdminConfig{
			Username: v.GetString("admin.username"),
			Password: v.GetString("admin.password"),
			FullName: v.GetString("admin.fullName"),
		},
	}
}

// Validate checks the settings the app cannot start without.
func (c *Config) Validate() error {
	err := vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.AppName, "appName"),
		vala.StringNotEmpty(c.SecretKey, "secretKey"),
		vala.StringNotEmpty(c.Server.Address, "server.address"),
		vala.StringNotEmpty(c.Server.SessionCookie, "server.sessionCookie"),
		vala.StringNotEmpty(c.Server.BodyLimit, "server.bodyLimit"),
		vala.GreaterThan(int(c.Server.SessionMaxAge/time.Second), 0, "server.sessionMaxAge"),
	).Check()
	if err != nil {
		return errors.Wrap(err, "invalid config")
	}

	switch c.Database.Backend {
	case BackendMemory:
	case BackendPostgres:
		err = vala.BeginValidation().Validate(
			vala.StringNotEmpty(c.Database.Host, "database.host"),
			vala.StringNotEmpty(c.Database.Name, "database.name"),
			vala.StringNotEmpty(c.Database.User, "database.user"),
		).Check()
		if err != nil {
			return errors.Wrap(err, "invalid database config")
		}
	default:
		return errors.Errorf("invalid config: unknown database.backend %q", c.Database.Backend)
	}
	return nil
}

// Package daemon wires the database, the policy resolution engine, the
// command interpreter and the web service into one runnable unit.
package daemon

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/config"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/dsn"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/models"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/db/repo"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/interpreter"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/rbac"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service.
func (d *Daemon) Start() error {
	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// WaitShutdown blocks until the web service shut down gracefully.
func (d *Daemon) WaitShutdown() {
	d.webService.WaitShutdown()
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	dbDriver := openDialector(cfg)

	// TranslateError turns duplicate key violations into gorm.ErrDuplicatedKey,
	// which the repository maps to the already-exists errors.
	db, err := gorm.Open(dbDriver, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.UserRole{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	store, err := repo.New(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create repository")
	}

	engine := rbac.NewEngine(store)

	var parser interpreter.Parser

	if cfg.Gemini.APIKey != "" {
		geminiParser, err := interpreter.NewGeminiParser(cfg.Gemini)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create generative parser")
		}

		parser = geminiParser

		log.Info().Str("model", cfg.Gemini.Model).Msg("generative command parsing enabled")
	} else {
		log.Info().Msg("no generative API key configured, command parsing uses pattern rules only")
	}

	interp := interpreter.New(engine, parser)

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, engine, interp),
	}
}

// openDialector selects the gorm driver from the configured engine.
func openDialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case "postgres":
		return gormpostgres.Open(dsn.Create(cfg))
	case "sqlite":
		return sqlite.Open(dsn.Create(cfg))
	default:
		return gormmysql.Open(dsn.Create(cfg))
	}
}

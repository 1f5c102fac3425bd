package config

import (
	"time"

	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/interpreter"
	"github.com/GoRBAC-Admin/GoRBAC-Admin/internal/logger"
)

// Auth holds the settings for issuing and verifying JWT bearer tokens.
type Auth struct {
	// JWTSecret signs the issued tokens. Must not be empty.
	JWTSecret string
	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Gemini    interpreter.GeminiConfig
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}

package internal

import (
	"io"
	"time"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	version   string
	output    io.Writer
	logOutput io.Writer
	asJSON    bool
	at        time.Time
	noCache   bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithOutput sets where reports are written.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.output = w
	}
}

// WithLogOutput sets where structured logs are written.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOutput = w
	}
}

// WithJSON makes Show print the report as JSON.
func WithJSON(on bool) Option {
	return func(a *application) {
		a.asJSON = on
	}
}

// WithReferenceDate runs the time machine as of t instead of now.
func WithReferenceDate(t time.Time) Option {
	return func(a *application) {
		a.at = t
	}
}

// WithoutCache reads the vault directly instead of going through the date cache.
func WithoutCache(on bool) Option {
	return func(a *application) {
		a.noCache = on
	}
}

// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/igfetch/internal/config"
	"github.com/law-makers/igfetch/internal/instagram"
	"github.com/law-makers/igfetch/internal/login"
	"github.com/law-makers/igfetch/internal/output"
	"github.com/law-makers/igfetch/internal/pacing"
	"github.com/law-makers/igfetch/internal/ratelimit"
	"github.com/law-makers/igfetch/internal/reqctx"
	"github.com/law-makers/igfetch/internal/retry"
	"github.com/law-makers/igfetch/internal/session"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands. Every
// top-level operation acquires its own browsing session through Sessions and
// releases it before returning.
type Application struct {
	Config    *config.Config
	Logger    *zerolog.Logger
	Sessions  *session.Manager
	Limiter   ratelimit.RateLimiter
	Stdout    io.Writer
	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the session snapshot store (file or keyring)
//   - Creates the session manager with the browser options
//   - Creates the request-rate ceiling used by the API client
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := newLogger(cfg, os.Stderr)
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	store, err := session.NewStore(cfg.StateStore, cfg.StatePath)
	if err != nil {
		return nil, err
	}
	logger.Debug().
		Str("store", store.Location()).
		Bool("exists", store.Exists()).
		Msg("Snapshot store initialized")

	manager := session.NewManager(session.Options{
		Origin:          instagram.BaseURL,
		ChromePath:      cfg.ChromePath,
		UserAgent:       cfg.UserAgent,
		Proxy:           cfg.Proxy,
		ShutdownTimeout: config.DefaultShutdownTimeout,
	}, store)

	var limiter ratelimit.RateLimiter = ratelimit.Unlimited()
	if cfg.MaxRPS > 0 {
		limiter = ratelimit.NewHostLimiter(cfg.MaxRPS, cfg.Burst)
	}
	logger.Debug().
		Float64("max_rps", cfg.MaxRPS).
		Int("burst", cfg.Burst).
		Msg("Rate limiter initialized")

	a := &Application{
		Config:    cfg,
		Logger:    &logger,
		Sessions:  manager,
		Limiter:   limiter,
		Stdout:    os.Stdout,
		startTime: time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return a, nil
}

func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	zerolog.SetGlobalLevel(levelFor(cfg.LogLevel))

	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// levelFor maps the configured level; "info" stays quiet unless -v is used
func levelFor(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Login authenticates a fresh session and persists its snapshot
func (a *Application) Login(ctx context.Context) error {
	ctx = reqctx.WithOperation(ctx, "login")
	ctx, cancel := a.bound(ctx)
	defer cancel()

	_, err := session.WithSession(ctx, a.Sessions, !a.Config.Interactive, func(ctx context.Context, sess *session.Session) (struct{}, error) {
		return struct{}{}, a.authenticate(ctx, sess)
	})
	return reqctx.Wrap(ctx, err)
}

// Run opens a session, ensures it is authenticated and runs fn with an API
// client bound to it. Rate-limited failures of fn are retried per the
// configured retry budget without reopening the session.
func Run[T any](ctx context.Context, a *Application, name string, hook instagram.PageHook, fn func(context.Context, *instagram.Client) (T, error)) (T, error) {
	ctx = reqctx.WithOperation(ctx, name)
	ctx, cancel := a.bound(ctx)
	defer cancel()

	logger := reqctx.Logger(ctx)
	logger.Debug().Msg("Operation started")

	out, err := session.WithSession(ctx, a.Sessions, !a.Config.Interactive, func(ctx context.Context, sess *session.Session) (T, error) {
		var zero T
		if err := a.authenticate(ctx, sess); err != nil {
			return zero, err
		}

		client := a.client(sess, hook)
		return retry.WithRetry(ctx, a.retryConfig(), func(ctx context.Context) (T, error) {
			return fn(ctx, client)
		})
	})
	if err != nil {
		return out, reqctx.Wrap(ctx, err)
	}

	logger.Debug().Dur("elapsed", time.Since(reqctx.FromContext(ctx).StartTime)).Msg("Operation finished")
	return out, nil
}

// retryConfig backs off from the page pacing base with the same jitter
func (a *Application) retryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.Retries = a.Config.Retries
	if a.Config.Pagination.BaseDelay > 0 {
		cfg.InitialBackoff = a.Config.Pagination.BaseDelay
	}
	cfg.Policy = pacing.New(a.Config.Pagination.SpikeProbability, nil)
	return cfg
}

func (a *Application) authenticate(ctx context.Context, sess *session.Session) error {
	m := login.New(sess, a.Config.Credentials, a.Config.Interactive, login.WithOrigin(instagram.BaseURL))
	return m.Run(ctx)
}

func (a *Application) client(b instagram.Browser, hook instagram.PageHook) *instagram.Client {
	opts := []instagram.Option{instagram.WithLimiter(a.Limiter)}
	if hook != nil {
		opts = append(opts, instagram.WithPageHook(hook))
	}
	return instagram.NewClient(b, opts...)
}

// bound applies the configured whole-command timeout, if any
func (a *Application) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.Config.Timeout > 0 {
		return context.WithTimeout(ctx, a.Config.Timeout)
	}
	return context.WithCancel(ctx)
}

// Emit persists v under <dataDir>/<key>/<kind>/ or prints it when --stdout
// is set. The returned path is empty when nothing was written to disk.
func (a *Application) Emit(key string, kind models.DataKind, v any) (string, error) {
	if a.Config.Stdout {
		return "", output.WriteJSON(a.Stdout, v)
	}
	path, err := output.SaveJSON(a.Config.DataDir, key, kind, v)
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", kind, err)
	}
	a.Logger.Info().Str("path", path).Str("kind", string(kind)).Msg("Result saved")
	return path, nil
}

// Close gracefully shuts down the application.
//
// Sessions are released by the operation that opened them, so this only
// records the final uptime.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Info().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}

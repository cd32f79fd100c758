// Package session owns the authenticated browsing context: it launches Chrome,
// restores a persisted snapshot, and guarantees teardown on every exit path.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Options configures the browser launched for a session
type Options struct {
	// Origin is the site whose cookies and localStorage are persisted
	Origin       string
	ChromePath   string
	UserAgent    string
	Proxy        string
	WindowWidth  int
	WindowHeight int
	// ShutdownTimeout bounds the graceful browser close
	ShutdownTimeout time.Duration
}

// Manager creates sessions and persists their snapshots
type Manager struct {
	opts  Options
	store Store
}

// NewManager creates a Manager. Zero-value options fall back to defaults.
func NewManager(opts Options, store Store) *Manager {
	if opts.WindowWidth <= 0 {
		opts.WindowWidth = 1280
	}
	if opts.WindowHeight <= 0 {
		opts.WindowHeight = 900
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	return &Manager{opts: opts, store: store}
}

// Store returns the snapshot store
func (m *Manager) Store() Store {
	return m.store
}

// HasSnapshot reports whether a persisted snapshot exists
func (m *Manager) HasSnapshot() bool {
	return m.store != nil && m.store.Exists()
}

// WithSession acquires a browsing context, runs fn with it and tears the
// context and browser process down however fn exits.
func WithSession[T any](ctx context.Context, m *Manager, headless bool, fn func(context.Context, *Session) (T, error)) (T, error) {
	var zero T

	sess, release, err := m.open(ctx, headless)
	if err != nil {
		return zero, err
	}
	defer release()

	return fn(ctx, sess)
}

func (m *Manager) allocatorOptions(headless bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("log-level", "3"),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(m.opts.WindowWidth, m.opts.WindowHeight),
	}

	if path := FindChrome(m.opts.ChromePath); path != "" {
		opts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, opts...)
	}
	if m.opts.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(m.opts.UserAgent))
	}
	if headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if m.opts.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(m.opts.Proxy))
	}
	return opts
}

// open launches the browser and restores the snapshot if one exists. The
// returned release func is safe to call exactly once.
func (m *Manager) open(ctx context.Context, headless bool) (*Session, func(), error) {
	start := time.Now()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, m.allocatorOptions(headless)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))

	release := func() {
		// Close the browser gracefully first, then kill whatever remains
		closeCtx, cancel := context.WithTimeout(context.Background(), m.opts.ShutdownTimeout)
		defer cancel()
		done := make(chan struct{})
		go func() {
			if err := chromedp.Cancel(tabCtx); err != nil {
				log.Debug().Err(err).Msg("Browser close returned error")
			}
			close(done)
		}()
		select {
		case <-done:
		case <-closeCtx.Done():
			log.Warn().Msg("Browser close timed out, killing process")
		}
		tabCancel()
		allocCancel()
		log.Debug().Dur("lifetime", time.Since(start)).Msg("Session released")
	}

	sess := &Session{
		ctx:    tabCtx,
		origin: m.opts.Origin,
		store:  m.store,
	}

	if err := sess.start(); err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}

	if m.HasSnapshot() {
		snap, err := m.store.Load()
		if err != nil {
			log.Warn().Err(err).Str("store", m.store.Location()).Msg("Failed to load session snapshot")
		} else if err := sess.restore(ctx, snap); err != nil {
			log.Warn().Err(err).Msg("Failed to restore session snapshot")
		} else {
			log.Debug().Int("cookies", len(snap.Cookies)).Msg("Session snapshot restored")
		}
	}

	log.Debug().
		Bool("headless", headless).
		Dur("elapsed", time.Since(start)).
		Msg("Session opened")

	return sess, release, nil
}

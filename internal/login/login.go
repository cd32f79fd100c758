// Package login drives the login surface of an authenticated browsing context
// until it reaches an authenticated state or a definitive failure.
package login

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/law-makers/igfetch/internal/pacing"
	"github.com/law-makers/igfetch/pkg/models"
	"github.com/rs/zerolog/log"
)

// DefaultOrigin is the site whose login surface is driven
const DefaultOrigin = "https://www.instagram.com"

// Page is the subset of a browsing context the machine drives
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	Count(ctx context.Context, selector string) (int, error)
	WaitVisible(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	ClickText(ctx context.Context, scope, text string) (bool, error)
	WatchNavigation(ctx context.Context) <-chan struct{}
	CaptureSnapshot(ctx context.Context) error
}

// State is a node of the login state machine
type State int

const (
	Unauthenticated State = iota
	CredentialsEntered
	AwaitingOutcome
	Authenticated
	ChallengePending
	Failed
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case CredentialsEntered:
		return "credentials-entered"
	case AwaitingOutcome:
		return "awaiting-outcome"
	case Authenticated:
		return "authenticated"
	case ChallengePending:
		return "challenge-pending"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Timings bounds every wait in the flow
type Timings struct {
	// Outcome bounds the race between navigation and a challenge field
	Outcome time.Duration
	// ChallengeGrace is how long interactive mode polls for success
	ChallengeGrace time.Duration
	Poll           time.Duration
	FieldWait      time.Duration
	// FieldPause plus up to FieldJitter separates typing into fields
	FieldPause  time.Duration
	FieldJitter time.Duration
	DialogPause time.Duration
}

// DefaultTimings returns the production waits
func DefaultTimings() Timings {
	return Timings{
		Outcome:        60 * time.Second,
		ChallengeGrace: 10 * time.Minute,
		Poll:           1500 * time.Millisecond,
		FieldWait:      30 * time.Second,
		FieldPause:     500 * time.Millisecond,
		FieldJitter:    500 * time.Millisecond,
		DialogPause:    500 * time.Millisecond,
	}
}

// Machine authenticates one Page
type Machine struct {
	page        Page
	creds       models.Credentials
	interactive bool
	origin      string
	timings     Timings
	state       State
	jitter      func() float64
}

// Option customizes a Machine
type Option func(*Machine)

// WithTimings overrides the default waits
func WithTimings(t Timings) Option {
	return func(m *Machine) { m.timings = t }
}

// WithOrigin overrides the site origin
func WithOrigin(origin string) Option {
	return func(m *Machine) { m.origin = strings.TrimRight(origin, "/") }
}

// New creates a Machine. Credentials may be empty; they are only demanded
// if the existing session is not already authenticated.
func New(page Page, creds models.Credentials, interactive bool, opts ...Option) *Machine {
	m := &Machine{
		page:        page,
		creds:       creds,
		interactive: interactive,
		origin:      DefaultOrigin,
		timings:     DefaultTimings(),
		state:       Unauthenticated,
		jitter:      rand.Float64,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	return m.state
}

func (m *Machine) transition(to State) {
	log.Info().
		Str("from", m.state.String()).
		Str("to", to.String()).
		Msg("Login state transition")
	m.state = to
}

func (m *Machine) fail(err error) error {
	m.transition(Failed)
	return err
}

// Run drives the page to Authenticated and captures a snapshot, or returns
// a typed error explaining why it could not.
func (m *Machine) Run(ctx context.Context) error {
	if err := m.page.Navigate(ctx, m.origin+"/"); err != nil {
		return m.fail(fmt.Errorf("failed to open %s: %w", m.origin, err))
	}

	if m.Probe(ctx).Authenticated() {
		log.Info().Msg("Session already authenticated")
		return m.authenticated(ctx)
	}

	if m.creds.Empty() {
		return m.fail(igerr.New(igerr.KindMissingCredentials,
			"IG_USERNAME and IG_PASSWORD must be set to log in"))
	}

	if err := m.enterCredentials(ctx); err != nil {
		return m.fail(err)
	}

	if err := m.awaitOutcome(ctx); err != nil {
		return m.fail(err)
	}

	m.dismissDialogs(ctx)

	if m.challengeDetected(ctx) {
		m.transition(ChallengePending)
		if !m.interactive {
			return m.fail(igerr.New(igerr.KindChallengeRequired,
				"Instagram verification required; re-run with --interactive (or HEADFUL=1) and complete the challenge in the browser"))
		}
		fmt.Fprintf(os.Stderr, "Instagram presented a verification challenge. Complete it in the browser window; waiting up to %s...\n", m.timings.ChallengeGrace)
		ok, err := m.waitAuthenticated(ctx, m.timings.ChallengeGrace)
		if err != nil {
			return m.fail(err)
		}
		if !ok {
			return m.fail(igerr.New(igerr.KindChallengeTimeout,
				"verification not completed in time; try again with --interactive and complete the challenge"))
		}
		return m.authenticated(ctx)
	}

	if m.Probe(ctx).Authenticated() {
		return m.authenticated(ctx)
	}

	if m.interactive {
		log.Info().Dur("grace", m.timings.ChallengeGrace).Msg("Not yet authenticated, waiting for the browser to settle")
		ok, err := m.waitAuthenticated(ctx, m.timings.ChallengeGrace)
		if err != nil {
			return m.fail(err)
		}
		if ok {
			return m.authenticated(ctx)
		}
	}

	return m.fail(igerr.New(igerr.KindLoginFailed,
		"check credentials or complete verification with --interactive"))
}

func (m *Machine) authenticated(ctx context.Context) error {
	m.transition(Authenticated)
	if err := m.page.CaptureSnapshot(ctx); err != nil {
		return fmt.Errorf("authenticated but failed to persist session: %w", err)
	}
	return nil
}

func (m *Machine) enterCredentials(ctx context.Context) error {
	if err := m.page.Navigate(ctx, m.origin+"/accounts/login/"); err != nil {
		return fmt.Errorf("failed to open login page: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.timings.FieldWait)
	err := m.page.WaitVisible(waitCtx, UsernameSelector)
	cancel()
	if err != nil {
		return igerr.New(igerr.KindLoginFailed, "login form did not appear").Wrap(err)
	}

	if err := m.page.Fill(ctx, UsernameSelector, m.creds.Username); err != nil {
		return igerr.New(igerr.KindLoginFailed, "could not enter username").Wrap(err)
	}
	if err := m.pause(ctx); err != nil {
		return err
	}
	if err := m.page.Fill(ctx, PasswordSelector, m.creds.Password); err != nil {
		return igerr.New(igerr.KindLoginFailed, "could not enter password").Wrap(err)
	}
	if err := m.pause(ctx); err != nil {
		return err
	}

	m.transition(CredentialsEntered)
	return nil
}

// awaitOutcome submits the form and races a page load against a challenge
// field. Neither outcome is an error; a timeout falls through to the probes.
func (m *Machine) awaitOutcome(ctx context.Context) error {
	raceCtx, cancel := context.WithTimeout(ctx, m.timings.Outcome)
	defer cancel()

	navigated := m.page.WatchNavigation(raceCtx)

	if err := m.submit(ctx); err != nil {
		return err
	}
	m.transition(AwaitingOutcome)

	challenge := make(chan struct{})
	go func() {
		if err := m.page.WaitVisible(raceCtx, ChallengeSelector); err == nil {
			close(challenge)
		}
	}()

	select {
	case <-navigated:
		log.Debug().Msg("Login submit navigated")
	case <-challenge:
		log.Debug().Msg("Verification field appeared")
	case <-raceCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Debug().Dur("timeout", m.timings.Outcome).Msg("No login outcome before timeout")
	}
	return nil
}

func (m *Machine) submit(ctx context.Context) error {
	n, err := m.page.Count(ctx, SubmitSelector)
	if err == nil && n > 0 {
		return m.page.Click(ctx, SubmitSelector)
	}
	clicked, err := m.page.ClickText(ctx, SubmitFallbackScope, SubmitFallbackText)
	if err != nil {
		return err
	}
	if !clicked {
		return igerr.New(igerr.KindLoginFailed, "login button not found")
	}
	return nil
}

func (m *Machine) dismissDialogs(ctx context.Context) {
	for _, text := range DialogButtons {
		clicked, err := m.page.ClickText(ctx, DialogButtonScope, text)
		if err != nil {
			log.Debug().Err(err).Str("button", text).Msg("Dialog dismissal failed")
			continue
		}
		if clicked {
			log.Debug().Str("button", text).Msg("Dismissed post-login dialog")
			_ = pacing.Wait(ctx, m.timings.DialogPause)
		}
	}
}

func (m *Machine) challengeDetected(ctx context.Context) bool {
	if loc, err := m.page.Location(ctx); err == nil && strings.Contains(loc, ChallengePath) {
		return true
	}
	n, err := m.page.Count(ctx, ChallengeSelector)
	return err == nil && n > 0
}

// waitAuthenticated polls the probe until it succeeds or max elapses
func (m *Machine) waitAuthenticated(ctx context.Context, max time.Duration) (bool, error) {
	deadline := time.Now().Add(max)
	for time.Now().Before(deadline) {
		if m.Probe(ctx).Authenticated() {
			return true, nil
		}
		if err := pacing.Wait(ctx, m.timings.Poll); err != nil {
			return false, err
		}
	}
	return false, nil
}

func (m *Machine) pause(ctx context.Context) error {
	d := m.timings.FieldPause + time.Duration(m.jitter()*float64(m.timings.FieldJitter))
	return pacing.Wait(ctx, d)
}

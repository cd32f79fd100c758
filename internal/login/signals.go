package login

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Markers present only on authenticated pages
const (
	EditProfileMarker = `a[href*="/accounts/edit/"]`
	HomeNavMarker     = `nav a[href="/"]`
	NewPostMarker     = `svg[aria-label="New post"]`
)

// Login surface selectors
const (
	UsernameSelector    = `input[name="username"], input[name="email"]`
	PasswordSelector    = `input[name="password"]`
	SubmitSelector      = `button[type="submit"]`
	SubmitFallbackScope = `div[role="button"]`
	SubmitFallbackText  = "Log in"
	ChallengeSelector   = `input[autocomplete="one-time-code"], input[name="security_code"], input[name="verificationCode"]`
	ChallengePath       = "/challenge/"
	DialogButtonScope   = `div[role="dialog"] button`
)

// DialogButtons dismiss the post-login interstitials, in order
var DialogButtons = []string{"Save", "Not Now"}

// AuthSignals records which authenticated-only markers were observed
type AuthSignals struct {
	EditProfileLink bool
	HomeNavLink     bool
	NewPostIcon     bool
}

// Authenticated reports whether any marker is present
func (s AuthSignals) Authenticated() bool {
	return s.EditProfileLink || s.HomeNavLink || s.NewPostIcon
}

// Probe inspects the page for authenticated markers. Inspection errors count
// as an absent marker.
func (m *Machine) Probe(ctx context.Context) AuthSignals {
	present := func(selector string) bool {
		n, err := m.page.Count(ctx, selector)
		if err != nil {
			log.Debug().Err(err).Str("selector", selector).Msg("Marker probe failed")
			return false
		}
		return n > 0
	}

	signals := AuthSignals{
		EditProfileLink: present(EditProfileMarker),
		HomeNavLink:     present(HomeNavMarker),
		NewPostIcon:     present(NewPostMarker),
	}
	log.Debug().
		Bool("edit_profile", signals.EditProfileLink).
		Bool("home_nav", signals.HomeNavLink).
		Bool("new_post", signals.NewPostIcon).
		Msg("Authenticated probe")
	return signals
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Session is a live browsing context. Methods take the caller's ctx for
// cancellation and deadlines; the browser itself lives on s.ctx.
type Session struct {
	ctx    context.Context
	origin string
	store  Store
}

// run executes actions on the tab, bounded by the caller's ctx
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// start allocates the browser. The first Run binds the process to the context
// it is given, so it runs on the tab context itself and not through run.
func (s *Session) start() error {
	return chromedp.Run(s.ctx, network.Enable(), page.Enable())
}

// Navigate loads url and waits for the load event
func (s *Session) Navigate(ctx context.Context, url string) error {
	log.Debug().Str("url", url).Msg("Navigating")
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Location returns the current page URL
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

// Count returns how many elements currently match selector
func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	var n int
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := s.run(ctx, chromedp.Evaluate(expr, &n)); err != nil {
		return 0, fmt.Errorf("count %q: %w", selector, err)
	}
	return n, nil
}

// WaitVisible blocks until an element matching selector is visible
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

// Fill replaces the value of the first matching input by typing into it
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	err := s.run(ctx,
		chromedp.Focus(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	return nil
}

// Click clicks the first visible element matching selector
func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	return nil
}

// ClickText clicks the first element under scope whose text contains text.
// It reports whether anything was clicked.
func (s *Session) ClickText(ctx context.Context, scope, text string) (bool, error) {
	expr := fmt.Sprintf(`(() => {
		const want = %s;
		for (const el of document.querySelectorAll(%s)) {
			if ((el.textContent || "").trim().includes(want)) { el.click(); return true; }
		}
		return false;
	})()`, jsString(text), jsString(scope))

	var clicked bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &clicked)); err != nil {
		return false, fmt.Errorf("click text %q: %w", text, err)
	}
	return clicked, nil
}

// WatchNavigation returns a channel closed on the next main-frame load event.
// Call it before the action expected to navigate. The listener is dropped
// once it fires or ctx is done.
func (s *Session) WatchNavigation(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	listenCtx, cancel := context.WithCancel(s.ctx)
	var once sync.Once

	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			once.Do(func() {
				close(done)
				cancel()
			})
		}
	})
	context.AfterFunc(ctx, cancel)

	return done
}

type fetchResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
	Error  string `json:"error"`
}

// Fetch issues a GET from inside the page so cookies and origin are implicit.
// A status of 0 means the request produced no response.
func (s *Session) Fetch(ctx context.Context, url string, headers map[string]string) (int, []byte, error) {
	hdr, err := json.Marshal(headers)
	if err != nil {
		return 0, nil, fmt.Errorf("encode headers: %w", err)
	}

	expr := fmt.Sprintf(`(async () => {
		try {
			const res = await fetch(%s, { method: "GET", credentials: "include", headers: %s });
			const body = await res.text().catch(() => "");
			return { status: res.status, body: body };
		} catch (e) {
			return { status: 0, body: "", error: String(e) };
		}
	})()`, jsString(url), hdr)

	var res fetchResult
	start := time.Now()
	err = s.run(ctx, chromedp.Evaluate(expr, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	if err != nil {
		return 0, nil, fmt.Errorf("in-page fetch: %w", err)
	}

	log.Debug().
		Str("url", url).
		Int("status", res.Status).
		Int("bytes", len(res.Body)).
		Dur("elapsed", time.Since(start)).
		Msg("In-page fetch completed")

	if res.Error != "" {
		log.Debug().Str("url", url).Str("error", res.Error).Msg("In-page fetch threw")
	}
	return res.Status, []byte(res.Body), nil
}

// Cookie returns the value of the named cookie for the session origin, or ""
func (s *Session) Cookie(ctx context.Context, name string) (string, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().WithURLs([]string{s.origin + "/"}).Do(ctx)
		return err
	}))
	if err != nil {
		return "", fmt.Errorf("read cookie %s: %w", name, err)
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value, nil
		}
	}
	return "", nil
}

// Snapshot captures cookies and, when the page is on the session origin,
// its localStorage.
func (s *Session) Snapshot(ctx context.Context) (*Snapshot, error) {
	var cookies []*network.Cookie
	err := s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}

	snap := &Snapshot{
		Cookies: fromNetworkCookies(cookies),
		Origins: []OriginState{},
	}

	loc, err := s.Location(ctx)
	if err == nil && s.origin != "" && strings.HasPrefix(loc, s.origin) {
		var entries []StorageEntry
		expr := `Object.keys(localStorage).map(k => ({ name: k, value: localStorage.getItem(k) }))`
		if err := s.run(ctx, chromedp.Evaluate(expr, &entries)); err != nil {
			log.Warn().Err(err).Msg("Failed to read localStorage")
		} else {
			snap.Origins = append(snap.Origins, OriginState{Origin: s.origin, LocalStorage: entries})
		}
	}
	return snap, nil
}

// CaptureSnapshot persists the current state to the manager's store
func (s *Session) CaptureSnapshot(ctx context.Context) error {
	if s.store == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Save(snap); err != nil {
		return err
	}
	log.Info().
		Int("cookies", len(snap.Cookies)).
		Str("store", s.store.Location()).
		Msg("Session snapshot saved")
	return nil
}

func (s *Session) restore(ctx context.Context, snap *Snapshot) error {
	if params := toCookieParams(snap.Cookies); len(params) > 0 {
		if err := s.run(ctx, network.SetCookies(params)); err != nil {
			return fmt.Errorf("set cookies: %w", err)
		}
	}

	entries := snap.LocalStorage(s.origin)
	if len(entries) == 0 {
		return nil
	}
	if err := s.Navigate(ctx, s.origin+"/"); err != nil {
		return err
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf(`(() => { for (const e of %s) { localStorage.setItem(e.name, e.value); } return true; })()`, data)
	var ok bool
	return s.run(ctx, chromedp.Evaluate(expr, &ok))
}

func fromNetworkCookies(cookies []*network.Cookie) []Cookie {
	out := make([]Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return out
}

func toCookieParams(cookies []Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &expires
		}
		switch c.SameSite {
		case "Strict":
			p.SameSite = network.CookieSameSiteStrict
		case "Lax":
			p.SameSite = network.CookieSameSiteLax
		case "None":
			p.SameSite = network.CookieSameSiteNone
		}
		params = append(params, p)
	}
	return params
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

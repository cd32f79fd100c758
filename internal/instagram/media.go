package instagram

import (
	"bytes"
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/law-makers/igfetch/internal/igerr"
	"github.com/rs/zerolog/log"
)

var (
	numericMediaID   = regexp.MustCompile(`^\d{8,}$`)
	shortcodeInURL   = regexp.MustCompile(`/(?:p|reels?|tv)/([^/?#]+)`)
	validShortcode   = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	iosMediaURL      = regexp.MustCompile(`instagram://media\?id=(\d+)`)
	scriptMediaIDRaw = regexp.MustCompile(`"media_id"\s*:\s*"(\d+)(?:_\d+)?"`)
)

// scriptTimeout bounds each inline script run in the embed fallback
const scriptTimeout = 500 * time.Millisecond

// ParseMediaInput splits a media reference into either a literal media id or
// a shortcode still to be resolved. Exactly one of the two is non-empty on
// success.
func ParseMediaInput(input string) (mediaID, shortcode string, err error) {
	trimmed := strings.TrimSpace(input)
	if numericMediaID.MatchString(trimmed) {
		return trimmed, "", nil
	}

	code := trimmed
	if m := shortcodeInURL.FindStringSubmatch(trimmed); m != nil {
		code = m[1]
	}
	if !validShortcode.MatchString(code) {
		return "", "", igerr.New(igerr.KindUnresolvable, "not a media id, shortcode or post URL").WithInput(input)
	}
	return "", code, nil
}

// Shortcode returns the shortcode named by input, or the trimmed input when
// it names none. Used to key output directories.
func Shortcode(input string) string {
	_, code, err := ParseMediaInput(input)
	if err != nil || code == "" {
		return strings.TrimSpace(input)
	}
	return code
}

// ResolveMediaID maps a numeric id, shortcode or post URL to a media id. The
// oEmbed lookup is tried first; a 404 or an id-less answer falls through to
// the embed pages in order. Any other failure aborts immediately.
func (c *Client) ResolveMediaID(ctx context.Context, input string) (string, error) {
	id, code, err := ParseMediaInput(input)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	if err := c.ensureOrigin(ctx); err != nil {
		return "", err
	}

	id, err = c.lookupOEmbed(ctx, code)
	if id != "" {
		return id, nil
	}
	if err != nil && !igerr.IsNotFound(err) {
		return "", err
	}

	for _, endpoint := range EmbedURLs(c.baseURL, code) {
		id, err := c.lookupEmbed(ctx, endpoint)
		if id != "" {
			log.Debug().Str("shortcode", code).Str("endpoint", endpoint).Msg("Media id resolved from embed page")
			return id, nil
		}
		if err != nil && !igerr.IsNotFound(err) {
			return "", err
		}
	}

	return "", igerr.New(igerr.KindAPI, "media id lookup exhausted every endpoint").
		WithInput(input).
		Wrap(igerr.ErrUnresolvable)
}

func (c *Client) lookupOEmbed(ctx context.Context, code string) (string, error) {
	endpoint := OEmbedURL(c.baseURL, code)
	body, err := c.fetch(ctx, endpoint, baseHeaders())
	if err != nil {
		return "", err
	}
	var resp oembedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Debug().Err(err).Str("endpoint", endpoint).Msg("oEmbed answer is not JSON")
		return "", nil
	}
	return normalizeMediaID(resp.MediaID), nil
}

func (c *Client) lookupEmbed(ctx context.Context, endpoint string) (string, error) {
	body, err := c.fetch(ctx, endpoint, map[string]string{"accept": "text/html"})
	if err != nil {
		return "", err
	}
	return extractMediaID(body), nil
}

// extractMediaID finds the media id in an embed page: first in markup, then
// by running its inline scripts.
func extractMediaID(html []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to parse embed HTML")
		return ""
	}

	var id string
	doc.Find(`meta[property="al:ios:url"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if m := iosMediaURL.FindStringSubmatch(s.AttrOr("content", "")); m != nil {
			id = m[1]
		}
		return id == ""
	})
	if id != "" {
		return id
	}

	doc.Find("[data-media-id]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		id = normalizeMediaID(s.AttrOr("data-media-id", ""))
		return id == ""
	})
	if id != "" {
		return id
	}

	return mediaIDFromScripts(doc)
}

const scriptPrelude = `
var __mediaId = "";
function __grab(d) {
	if (!d || __mediaId) return;
	var m = d.shortcode_media || (d.graphql && d.graphql.shortcode_media) || (d.items && d.items[0]);
	if (m && (m.id || m.pk)) __mediaId = String(m.id || m.pk);
}
window.__additionalDataLoaded = function (key, data) { __grab(data); };
`

const scriptEpilogue = `
if (window._sharedData && window._sharedData.entry_data && window._sharedData.entry_data.PostPage) {
	__grab(window._sharedData.entry_data.PostPage[0] && window._sharedData.entry_data.PostPage[0].graphql);
}
__mediaId;
`

// mediaIDFromScripts runs inline scripts against a stubbed window that
// captures the post payload they hand to the page.
func mediaIDFromScripts(doc *goquery.Document) string {
	vm := goja.New()
	vm.Set("window", vm.GlobalObject())
	vm.Set("self", vm.GlobalObject())
	vm.Set("document", map[string]interface{}{})
	vm.Set("console", map[string]interface{}{
		"log":   func(goja.FunctionCall) goja.Value { return nil },
		"error": func(goja.FunctionCall) goja.Value { return nil },
	})
	if _, err := vm.RunString(scriptPrelude); err != nil {
		log.Debug().Err(err).Msg("Script prelude failed")
		return ""
	}

	var raw string
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		src := sel.Text()
		if src == "" {
			return
		}
		if raw == "" {
			if m := scriptMediaIDRaw.FindStringSubmatch(src); m != nil {
				raw = m[1]
			}
		}

		timer := time.AfterFunc(scriptTimeout, func() { vm.Interrupt("script timeout") })
		_, err := vm.RunString(src)
		timer.Stop()
		vm.ClearInterrupt()
		if err != nil {
			log.Trace().Err(err).Msg("Embed script failed")
		}
	})

	v, err := vm.RunString(scriptEpilogue)
	if err == nil && v != nil {
		if id := normalizeMediaID(v.String()); id != "" {
			return id
		}
	}
	return raw
}

package instagram

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/law-makers/igfetch/pkg/models"
)

const (
	// BaseURL is the origin every in-session request is issued from
	BaseURL = "https://www.instagram.com"

	// AppID is sent as x-ig-app-id on every API call
	AppID = "936619743392459"

	ProfileEndpoint = "/api/v1/users/web_profile_info/"
	OEmbedEndpoint  = "/api/v1/oembed/"

	// DefaultPageSize is the connection page size when none is configured
	DefaultPageSize = 12
	// DefaultMaxPages bounds a connection listing when none is configured
	DefaultMaxPages = 500
	// LikersPageCap bounds a likers listing regardless of server signals
	LikersPageCap = 25

	// SelfIDCookie holds the logged-in account's own user id
	SelfIDCookie = "ds_user_id"
	// CSRFCookie holds the token echoed as x-csrftoken
	CSRFCookie = "csrftoken"
)

// ProfileURL builds the profile-info URL for username
func ProfileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)
	return fmt.Sprintf("%s%s?%s", base, ProfileEndpoint, params.Encode())
}

// ConnectionsURL builds one page of a followers/following listing
func ConnectionsURL(base, userID string, kind models.ConnectionKind, count int, maxID string) string {
	u := fmt.Sprintf("%s/api/v1/friendships/%s/%s/?count=%d",
		base, url.PathEscape(userID), kind, count)
	if maxID != "" {
		u += "&max_id=" + url.QueryEscape(maxID)
	}
	return u
}

// LikersURL builds one page of a post's likers listing
func LikersURL(base, mediaID, maxID string) string {
	u := fmt.Sprintf("%s/api/v1/media/%s/likers/", base, url.PathEscape(mediaID))
	if maxID != "" {
		u += "?max_id=" + url.QueryEscape(maxID)
	}
	return u
}

// PostURL returns the canonical post URL for a shortcode
func PostURL(base, shortcode string) string {
	return fmt.Sprintf("%s/p/%s/", base, shortcode)
}

// OEmbedURL builds the primary shortcode lookup. The embedded post URL always
// names the public origin, whatever base the request is sent to.
func OEmbedURL(base, shortcode string) string {
	params := url.Values{}
	params.Set("url", PostURL(BaseURL, shortcode))
	return fmt.Sprintf("%s%s?%s", base, OEmbedEndpoint, params.Encode())
}

// EmbedURLs lists the fallback embed pages in the order they are tried
func EmbedURLs(base, shortcode string) []string {
	return []string{
		fmt.Sprintf("%s/p/%s/embed/captioned/", base, shortcode),
		fmt.Sprintf("%s/p/%s/embed/", base, shortcode),
		fmt.Sprintf("%s/reel/%s/embed/", base, shortcode),
	}
}

// normalizeMediaID strips the owner suffix from "<media>_<owner>" ids
func normalizeMediaID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.IndexByte(id, '_'); i >= 0 {
		id = id[:i]
	}
	if _, err := strconv.ParseUint(id, 10, 64); err != nil {
		return ""
	}
	return id
}

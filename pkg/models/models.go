package models

import "time"

// Credentials are supplied once per process and never persisted
type Credentials struct {
	Username string
	Password string
}

// Empty reports whether either field is missing
func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// UserSummary is one entry of a connection or liker listing
type UserSummary struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"fullName,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	IsVerified *bool  `json:"isVerified,omitempty"`
}

// Profile is the summary of a single account. Optional counters are pointers
// so that an absent field is distinguishable from a zero count.
type Profile struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	FullName       string    `json:"fullName,omitempty"`
	AvatarURL      string    `json:"avatarUrl,omitempty"`
	IsVerified     *bool     `json:"isVerified,omitempty"`
	Bio            string    `json:"bio,omitempty"`
	PostsCount     *int      `json:"postsCount,omitempty"`
	FollowersCount *int      `json:"followersCount,omitempty"`
	FollowingCount *int      `json:"followingCount,omitempty"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

// ScrapeResult is the persisted artifact of a listing fetch
type ScrapeResult[T any] struct {
	Items     []T       `json:"items"`
	Total     int       `json:"total"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// NewScrapeResult derives Total from the item count
func NewScrapeResult[T any](items []T) ScrapeResult[T] {
	if items == nil {
		items = []T{}
	}
	return ScrapeResult[T]{
		Items:     items,
		Total:     len(items),
		FetchedAt: time.Now().UTC(),
	}
}

// LikersResult is the persisted artifact of a post-likers fetch.
// TotalLikes is the server-declared count and may exceed Available.
type LikersResult struct {
	Items      []UserSummary `json:"items"`
	Total      int           `json:"total"`
	Available  int           `json:"available"`
	TotalLikes int           `json:"totalLikes"`
	FetchedAt  time.Time     `json:"fetchedAt"`
}

// PaginationConfig bounds a single paginated fetch
type PaginationConfig struct {
	PageSize         int
	MaxPages         int
	BaseDelay        time.Duration
	SpikeProbability float64
}

// ConnectionKind selects the connection listing endpoint
type ConnectionKind string

const (
	Followers ConnectionKind = "followers"
	Following ConnectionKind = "following"
)

// DataKind names the output directory of an artifact
type DataKind string

const (
	KindFollowers  DataKind = "followers"
	KindFollowings DataKind = "followings"
	KindProfile    DataKind = "profile"
	KindLikers     DataKind = "likers"
)

// DataKind returns the artifact kind for a connection listing
func (k ConnectionKind) DataKind() DataKind {
	if k == Following {
		return KindFollowings
	}
	return KindFollowers
}

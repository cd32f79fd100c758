package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/law-makers/igfetch/pkg/models"
)

// flexID decodes ids the server sends either as strings or as numbers
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

type countEdge struct {
	Count *int `json:"count"`
}

type profileUser struct {
	ID                       flexID     `json:"id"`
	PK                       flexID     `json:"pk"`
	Username                 string     `json:"username"`
	FullName                 string     `json:"full_name"`
	Biography                string     `json:"biography"`
	IsVerified               bool       `json:"is_verified"`
	ProfilePicURLHD          string     `json:"profile_pic_url_hd"`
	EdgeOwnerToTimelineMedia *countEdge `json:"edge_owner_to_timeline_media"`
	EdgeFollowedBy           *countEdge `json:"edge_followed_by"`
	EdgeFollow               *countEdge `json:"edge_follow"`
}

type profileResponse struct {
	Data *struct {
		User *profileUser `json:"user"`
	} `json:"data"`
}

// apiUser is one entry of a connections or likers page
type apiUser struct {
	PK            flexID `json:"pk"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	ProfilePicURL string `json:"profile_pic_url"`
	IsVerified    *bool  `json:"is_verified"`
}

func (u apiUser) summary() models.UserSummary {
	username := u.Username
	if username == "" {
		username = string(u.PK)
	}
	id := string(u.PK)
	if id == "" {
		id = username
	}
	return models.UserSummary{
		ID:         id,
		Username:   username,
		FullName:   u.FullName,
		AvatarURL:  u.ProfilePicURL,
		IsVerified: u.IsVerified,
	}
}

type connectionsResponse struct {
	Users     *[]apiUser `json:"users"`
	HasMore   bool       `json:"has_more"`
	NextMaxID flexID     `json:"next_max_id"`
}

type likersResponse struct {
	Users     *[]apiUser `json:"users"`
	UserCount *int       `json:"user_count"`
	NextMaxID flexID     `json:"next_max_id"`
}

type oembedResponse struct {
	MediaID string `json:"media_id"`
}

// Likers is the accumulated result of a likers listing
type Likers struct {
	Items []models.UserSummary
	// TotalLikes is the largest like count any page declared
	TotalLikes int
}

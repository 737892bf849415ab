package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Token is the response from POST /auth/jwt/login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User describes an account as returned by /users/me and /auth/register.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

// UploadRequest is a media file plus caption for POST /upload.
type UploadRequest struct {
	FileName    string
	ContentType string
	Content     io.Reader
	Caption     string
}

// Post is a single feed entry.
type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id,omitempty"`
	Email         string    `json:"email"`
	Caption       string    `json:"caption"`
	URL           string    `json:"url"`
	FileType      string    `json:"file_type"`
	FileName      string    `json:"file_name,omitempty"`
	CreatedAt     Timestamp `json:"created_at"`
	IsOwner       bool      `json:"is_owner"`
	Likes         int       `json:"likes"`
	CommentsCount int       `json:"comments_count"`
	Avatar        string    `json:"avatar,omitempty"`
}

// FeedResponse is the response from GET /feed.
type FeedResponse struct {
	Posts []Post `json:"posts"`
}

// timestampLayouts are tried in order when decoding created_at. The backend
// emits naive ISO-8601 timestamps, which time.Time's JSON decoding rejects.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time that accepts timestamps with or without a zone.
// Zone-less values are taken as UTC.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding timestamp: %w", err)
	}

	if s == "" {
		ts.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			return nil
		}
	}

	return fmt.Errorf("decoding timestamp: unrecognized format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte(`""`), nil
	}

	return json.Marshal(ts.Format(time.RFC3339))
}

// Date returns the YYYY-MM-DD form shown next to posts, or "" when unset.
func (ts Timestamp) Date() string {
	if ts.IsZero() {
		return ""
	}

	return ts.Format("2006-01-02")
}

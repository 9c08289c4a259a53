package models

import "time"

// UserNote is a staff-authored annotation on a user profile. The author is
// always the authenticated caller; it is never taken from the request body.
type UserNote struct {
	ID            int64     `json:"id"`
	UserProfileID string    `json:"user_profile"`
	AuthorID      string    `json:"author"`
	AuthorName    string    `json:"author_name"`
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
}

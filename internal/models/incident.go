package models

import "time"

// Incident is a support ticket. Status and Agent are nested on read; writes
// go through StatusID/AgentID instead (never part of the JSON payload).
type Incident struct {
	ID             int64         `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Status         *StatusLabel  `json:"status"`
	Priority       string        `json:"priority"`
	SubmittedAt    time.Time     `json:"submitted_at"`
	RequesterName  string        `json:"requester_name"`
	RequesterEmail string        `json:"requester_email"`
	Agent          *AgentRef     `json:"agent"`
	Source         string        `json:"source"`
	Urgency        string        `json:"urgency"`
	Impact         string        `json:"impact"`
	Group          string        `json:"group"`
	Department     string        `json:"department"`
	Category       string        `json:"category"`
	Subcategory    string        `json:"subcategory"`
	Tags           []string      `json:"tags"`
	Attachments    []Attachment  `json:"attachments"`
	ActivityLog    []ActivityLog `json:"activity_log"`
	DueDate        *time.Time    `json:"due_date"`
	FirstResponseAt *time.Time   `json:"first_response_at"`
	ResolvedAt     *time.Time    `json:"resolved_at"`

	// Storage-side foreign keys; nil means unset.
	StatusID  *int64  `json:"-"`
	AgentID   *string `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// Clone copies the defined field set into a fresh incident value for the
// duplicate operation: new identity, "[DUPLICATE] " title prefix, status and
// agent cleared, everything else carried over.
func (i *Incident) Clone() *Incident {
	c := &Incident{
		Title:           "[DUPLICATE] " + i.Title,
		Description:     i.Description,
		Priority:        i.Priority,
		RequesterName:   i.RequesterName,
		RequesterEmail:  i.RequesterEmail,
		Source:          i.Source,
		Urgency:         i.Urgency,
		Impact:          i.Impact,
		Group:           i.Group,
		Department:      i.Department,
		Category:        i.Category,
		Subcategory:     i.Subcategory,
		DueDate:         i.DueDate,
		FirstResponseAt: i.FirstResponseAt,
		ResolvedAt:      i.ResolvedAt,
	}
	c.Tags = append([]string(nil), i.Tags...)
	return c
}

// Attachment is a file uploaded against an incident. File carries the URL
// path the stored file is served under.
type Attachment struct {
	ID         int64     `json:"id"`
	IncidentID int64     `json:"-"`
	File       string    `json:"file"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ActivityLog is one append-only audit entry on an incident: either a
// "<Field> Change" diff or a "Note Added" entry. User renders as the acting
// user's display name, or null when the account was since deleted.
type ActivityLog struct {
	ID           int64     `json:"id"`
	IncidentID   int64     `json:"-"`
	User         *string   `json:"user"`
	UserID       *string   `json:"-"`
	ActivityType string    `json:"activity_type"`
	OldValue     *string   `json:"old_value"`
	NewValue     *string   `json:"new_value"`
	Note         *string   `json:"note"`
	Timestamp    time.Time `json:"timestamp"`
}

const ActivityNoteAdded = "Note Added"

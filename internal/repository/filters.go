package repository

// IncidentFilter narrows incident listings. Exact-match filters; empty means
// "don't filter". Results are ordered submitted_at descending.
type IncidentFilter struct {
	RequesterEmail string
	AgentID        string
	StatusName     string

	// RestrictToEmail is the visibility clamp for non-staff callers: when
	// set, only incidents with this requester_email are returned, on top
	// of whatever other filters apply.
	RestrictToEmail string

	Limit  int
	Offset int
}

// UserFilter narrows the user directory. Search matches first name, last
// name or email, case-insensitively. Results are ordered by first then last
// name.
type UserFilter struct {
	GroupName string
	Search    string
	Limit     int
	Offset    int
}

// UserNoteFilter narrows notes to one subject profile. Results are ordered
// created_at descending.
type UserNoteFilter struct {
	UserProfileID string
}

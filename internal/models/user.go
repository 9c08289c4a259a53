package models

import "time"

const (
	GroupEmployee = "Employee"
	GroupITStaff  = "IT Staff"
)

type User struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Groups      []string  `json:"groups"`
	IsSuperuser bool      `json:"is_superuser"`
	IsActive    bool      `json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// IsStaff reports whether the user may see every incident and asset:
// superusers and members of the "IT Staff" group.
func (u *User) IsStaff() bool {
	if u == nil {
		return false
	}
	if u.IsSuperuser {
		return true
	}
	for _, g := range u.Groups {
		if g == GroupITStaff {
			return true
		}
	}
	return false
}

func (u *User) FullName() string {
	switch {
	case u == nil:
		return ""
	case u.FirstName == "" && u.LastName == "":
		return u.Username
	case u.LastName == "":
		return u.FirstName
	case u.FirstName == "":
		return u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// AgentRef is the trimmed user shape nested inside incident payloads.
type AgentRef struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

func (u *User) AsAgentRef() *AgentRef {
	if u == nil {
		return nil
	}
	return &AgentRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Username: u.Username}
}

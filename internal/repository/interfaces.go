package repository

import (
	"context"
	"errors"

	"github.com/mjajones/notifiq-app/internal/models"
)

var (
	// ErrNotFound is returned by mutating calls aimed at a missing row.
	// Read calls return (nil, nil) instead.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint is violated
	// (user email, status label name, asset tag).
	ErrDuplicate = errors.New("duplicate value")
)

type UserRepository interface {
	// Create persists the user and its group memberships; fills ID and
	// timestamps.
	Create(ctx context.Context, u *models.User, passwordHash string) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, string /*passwordHash*/, error)
	List(ctx context.Context, f UserFilter) ([]models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

type StatusLabelRepository interface {
	Create(ctx context.Context, l *models.StatusLabel) error
	Get(ctx context.Context, id int64) (*models.StatusLabel, error)
	GetByName(ctx context.Context, name string) (*models.StatusLabel, error)
	List(ctx context.Context) ([]models.StatusLabel, error)
	Update(ctx context.Context, l *models.StatusLabel) error
	Delete(ctx context.Context, id int64) error
}

type IncidentRepository interface {
	Create(ctx context.Context, inc *models.Incident) error
	// Get loads the incident with nested status, agent, attachments and
	// activity log (timestamp ascending).
	Get(ctx context.Context, id int64) (*models.Incident, error)
	List(ctx context.Context, f IncidentFilter) ([]models.Incident, error)
	// Update appends the given activity entries and applies the field
	// values of inc as one atomic unit: on failure neither survives.
	Update(ctx context.Context, inc *models.Incident, logs []models.ActivityLog) error
	Delete(ctx context.Context, id int64) error
	AddAttachment(ctx context.Context, a *models.Attachment) error
}

type AssetRepository interface {
	Create(ctx context.Context, a *models.Asset) error
	Get(ctx context.Context, id int64) (*models.Asset, error)
	List(ctx context.Context) ([]models.Asset, error)
	Update(ctx context.Context, a *models.Asset) error
	Delete(ctx context.Context, id int64) error
}

type UserNoteRepository interface {
	Create(ctx context.Context, n *models.UserNote) error
	Get(ctx context.Context, id int64) (*models.UserNote, error)
	List(ctx context.Context, f UserNoteFilter) ([]models.UserNote, error)
	Update(ctx context.Context, n *models.UserNote) error
	Delete(ctx context.Context, id int64) error
}

// Package memory provides in-memory repository implementations backed by a
// single mutex-guarded store. They mirror the postgres repositories'
// semantics (ordering, cascades, nulling, uniqueness) and back the test
// suites and local development without a database.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
)

type Store struct {
	mu sync.Mutex

	users  map[string]*models.User
	hashes map[string]string

	labels      map[int64]*models.StatusLabel
	nextLabelID int64

	incidents      map[int64]*models.Incident
	nextIncidentID int64

	attachments      []models.Attachment
	nextAttachmentID int64

	logs      []models.ActivityLog
	nextLogID int64

	assets      map[int64]*models.Asset
	nextAssetID int64

	notes      map[int64]*models.UserNote
	nextNoteID int64
}

func NewStore() *Store {
	return &Store{
		users:     map[string]*models.User{},
		hashes:    map[string]string{},
		labels:    map[int64]*models.StatusLabel{},
		incidents: map[int64]*models.Incident{},
		assets:    map[int64]*models.Asset{},
		notes:     map[int64]*models.UserNote{},
	}
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{s} }
func (s *Store) StatusLabels() repository.StatusLabelRepository { return &statusLabelRepo{s} }
func (s *Store) Incidents() repository.IncidentRepository       { return &incidentRepo{s} }
func (s *Store) Assets() repository.AssetRepository             { return &assetRepo{s} }
func (s *Store) UserNotes() repository.UserNoteRepository       { return &userNoteRepo{s} }

func newID() string { return uuid.NewString() }

func now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }

func copyUser(u *models.User) *models.User {
	c := *u
	c.Groups = append([]string(nil), u.Groups...)
	return &c
}

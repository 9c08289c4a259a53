package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mjajones/notifiq-app/internal/metrics"
	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/utils"
)

// ValidationError carries per-field messages; nothing is persisted when one
// is returned.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// Optional distinguishes "absent", "explicit null" and "present" in PATCH
// payloads, which plain pointers cannot.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Valid: true, Value: v} }
func Null[T any]() Optional[T]    { return Optional[T]{Set: true} }

// IncidentCreate is the accepted field set for new incidents. requester_email
// is deliberately absent: it is always taken from the caller.
type IncidentCreate struct {
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Priority      string     `json:"priority"`
	RequesterName string     `json:"requester_name"`
	Source        string     `json:"source"`
	Urgency       string     `json:"urgency"`
	Impact        string     `json:"impact"`
	Group         string     `json:"group"`
	Department    string     `json:"department"`
	Category      string     `json:"category"`
	Subcategory   string     `json:"subcategory"`
	Tags          []string   `json:"tags"`
	AgentID       *string    `json:"agent_id"`
	DueDate       *time.Time `json:"due_date"`
}

// IncidentPatch is a partial update. Nil pointer / unset Optional means
// "leave alone".
type IncidentPatch struct {
	Title           *string             `json:"title"`
	Description     *string             `json:"description"`
	Priority        *string             `json:"priority"`
	RequesterName   *string             `json:"requester_name"`
	Source          *string             `json:"source"`
	Urgency         *string             `json:"urgency"`
	Impact          *string             `json:"impact"`
	Group           *string             `json:"group"`
	Department      *string             `json:"department"`
	Category        *string             `json:"category"`
	Subcategory     *string             `json:"subcategory"`
	Tags            *[]string           `json:"tags"`
	StatusID        Optional[int64]     `json:"status_id"`
	AgentID         Optional[string]    `json:"agent_id"`
	DueDate         Optional[time.Time] `json:"due_date"`
	FirstResponseAt Optional[time.Time] `json:"first_response_at"`
	ResolvedAt      Optional[time.Time] `json:"resolved_at"`

	// InternalNote always produces a "Note Added" audit entry, whether or
	// not any tracked field changed.
	InternalNote *string `json:"internal_note"`
}

// trackedField is one statically declared auditable field: how to render the
// current value, whether the patch touches it, how to render the proposed
// value, and how to apply it. The diff routine below is exhaustive over this
// table instead of reflecting over payload keys.
type trackedField struct {
	name     string
	current  func(*models.Incident) string
	proposed func(*IncidentPatch) (string, bool)
	apply    func(*models.Incident, *IncidentPatch)
}

func stringField(name string, get func(*models.Incident) *string, pick func(*IncidentPatch) *string) trackedField {
	return trackedField{
		name:    name,
		current: func(i *models.Incident) string { return *get(i) },
		proposed: func(p *IncidentPatch) (string, bool) {
			if v := pick(p); v != nil {
				return *v, true
			}
			return "", false
		},
		apply: func(i *models.Incident, p *IncidentPatch) {
			if v := pick(p); v != nil {
				*get(i) = *v
			}
		},
	}
}

func timeField(name string, get func(*models.Incident) **time.Time, pick func(*IncidentPatch) *Optional[time.Time]) trackedField {
	render := func(t *time.Time) string {
		if t == nil {
			return "None"
		}
		return t.UTC().Format(time.RFC3339)
	}
	return trackedField{
		name:    name,
		current: func(i *models.Incident) string { return render(*get(i)) },
		proposed: func(p *IncidentPatch) (string, bool) {
			o := pick(p)
			if !o.Set {
				return "", false
			}
			if !o.Valid {
				return "None", true
			}
			return render(&o.Value), true
		},
		apply: func(i *models.Incident, p *IncidentPatch) {
			o := pick(p)
			if !o.Set {
				return
			}
			if !o.Valid {
				*get(i) = nil
				return
			}
			v := o.Value
			*get(i) = &v
		},
	}
}

var trackedFields = []trackedField{
	stringField("Title", func(i *models.Incident) *string { return &i.Title }, func(p *IncidentPatch) *string { return p.Title }),
	stringField("Description", func(i *models.Incident) *string { return &i.Description }, func(p *IncidentPatch) *string { return p.Description }),
	stringField("Priority", func(i *models.Incident) *string { return &i.Priority }, func(p *IncidentPatch) *string { return p.Priority }),
	stringField("Requester Name", func(i *models.Incident) *string { return &i.RequesterName }, func(p *IncidentPatch) *string { return p.RequesterName }),
	stringField("Source", func(i *models.Incident) *string { return &i.Source }, func(p *IncidentPatch) *string { return p.Source }),
	stringField("Urgency", func(i *models.Incident) *string { return &i.Urgency }, func(p *IncidentPatch) *string { return p.Urgency }),
	stringField("Impact", func(i *models.Incident) *string { return &i.Impact }, func(p *IncidentPatch) *string { return p.Impact }),
	stringField("Group", func(i *models.Incident) *string { return &i.Group }, func(p *IncidentPatch) *string { return p.Group }),
	stringField("Department", func(i *models.Incident) *string { return &i.Department }, func(p *IncidentPatch) *string { return p.Department }),
	stringField("Category", func(i *models.Incident) *string { return &i.Category }, func(p *IncidentPatch) *string { return p.Category }),
	stringField("Subcategory", func(i *models.Incident) *string { return &i.Subcategory }, func(p *IncidentPatch) *string { return p.Subcategory }),
	{
		name:    "Tags",
		current: func(i *models.Incident) string { return renderTags(i.Tags) },
		proposed: func(p *IncidentPatch) (string, bool) {
			if p.Tags == nil {
				return "", false
			}
			return renderTags(*p.Tags), true
		},
		apply: func(i *models.Incident, p *IncidentPatch) {
			if p.Tags != nil {
				i.Tags = append([]string(nil), (*p.Tags)...)
			}
		},
	},
	timeField("Due Date", func(i *models.Incident) **time.Time { return &i.DueDate }, func(p *IncidentPatch) *Optional[time.Time] { return &p.DueDate }),
	timeField("First Response At", func(i *models.Incident) **time.Time { return &i.FirstResponseAt }, func(p *IncidentPatch) *Optional[time.Time] { return &p.FirstResponseAt }),
	timeField("Resolved At", func(i *models.Incident) **time.Time { return &i.ResolvedAt }, func(p *IncidentPatch) *Optional[time.Time] { return &p.ResolvedAt }),
}

func renderTags(tags []string) string {
	return "[" + strings.Join(tags, ", ") + "]"
}

type IncidentService struct {
	incidents repository.IncidentRepository
	labels    repository.StatusLabelRepository
	users     repository.UserRepository
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

func NewIncidentService(
	incidents repository.IncidentRepository,
	labels repository.StatusLabelRepository,
	users repository.UserRepository,
	m *metrics.Metrics,
	log zerolog.Logger,
) *IncidentService {
	return &IncidentService{incidents: incidents, labels: labels, users: users, metrics: m, log: log}
}

// Create builds a new incident for the caller. requester_email is always the
// caller's email regardless of input, and status defaults to the label named
// "Open" when one exists (its absence is not an error).
func (s *IncidentService) Create(ctx context.Context, caller *utils.Claims, in *IncidentCreate) (*models.Incident, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fieldError("title", "this field is required")
	}

	inc := &models.Incident{
		Title:          title,
		Description:    in.Description,
		Priority:       defaultStr(in.Priority, "Medium"),
		RequesterName:  in.RequesterName,
		RequesterEmail: caller.Email,
		Source:         defaultStr(in.Source, "phone"),
		Urgency:        defaultStr(in.Urgency, "low"),
		Impact:         defaultStr(in.Impact, "low"),
		Group:          defaultStr(in.Group, "Level 1 Helpdesk"),
		Department:     defaultStr(in.Department, "IT"),
		Category:       in.Category,
		Subcategory:    in.Subcategory,
		Tags:           in.Tags,
		DueDate:        in.DueDate,
	}

	open, err := s.labels.GetByName(ctx, models.StatusOpen)
	if err != nil {
		return nil, err
	}
	if open != nil {
		inc.StatusID = &open.ID
	}

	if in.AgentID != nil {
		agent, err := s.users.GetByID(ctx, *in.AgentID)
		if err != nil {
			return nil, err
		}
		if agent == nil {
			return nil, fieldError("agent_id", "no such user")
		}
		inc.AgentID = in.AgentID
	}

	if err := s.incidents.Create(ctx, inc); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncidentsCreated.Inc()
	}
	return s.incidents.Get(ctx, inc.ID)
}

// Get applies the visibility rule: staff see everything, others only their
// own incidents. An invisible incident is indistinguishable from a missing
// one.
func (s *IncidentService) Get(ctx context.Context, caller *utils.Claims, id int64) (*models.Incident, error) {
	inc, err := s.incidents.Get(ctx, id)
	if err != nil || inc == nil {
		return nil, err
	}
	if !caller.IsStaff() && inc.RequesterEmail != caller.Email {
		return nil, nil
	}
	return inc, nil
}

func (s *IncidentService) List(ctx context.Context, caller *utils.Claims, f repository.IncidentFilter) ([]models.Incident, error) {
	if !caller.IsStaff() {
		f.RestrictToEmail = caller.Email
	}
	return s.incidents.List(ctx, f)
}

// Update validates the patch, computes the audit diff over the declared
// tracked-field table, and applies both atomically. Two concurrent updates
// may read the same old value and each log a stale diff; that race is
// accepted for an audit trail of this fidelity.
func (s *IncidentService) Update(ctx context.Context, caller *utils.Claims, id int64, p *IncidentPatch) (*models.Incident, error) {
	inc, err := s.Get(ctx, caller, id)
	if err != nil || inc == nil {
		return nil, err
	}

	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return nil, fieldError("title", "may not be blank")
	}

	// Resolve and validate foreign keys before anything is logged.
	var newStatus *models.StatusLabel
	if p.StatusID.Set {
		if !p.StatusID.Valid {
			return nil, fieldError("status_id", "this field may not be null")
		}
		newStatus, err = s.labels.Get(ctx, p.StatusID.Value)
		if err != nil {
			return nil, err
		}
		if newStatus == nil {
			return nil, fieldError("status_id", "no such status label")
		}
	}
	var newAgent *models.User
	if p.AgentID.Set && p.AgentID.Valid {
		newAgent, err = s.users.GetByID(ctx, p.AgentID.Value)
		if err != nil {
			return nil, err
		}
		if newAgent == nil {
			return nil, fieldError("agent_id", "no such user")
		}
	}

	var logs []models.ActivityLog
	addLog := func(name, oldVal, newVal string) {
		logs = append(logs, models.ActivityLog{
			IncidentID:   inc.ID,
			UserID:       &caller.UserID,
			ActivityType: name + " Change",
			OldValue:     &oldVal,
			NewValue:     &newVal,
		})
	}

	for _, f := range trackedFields {
		proposed, present := f.proposed(p)
		if !present {
			continue
		}
		if cur := f.current(inc); cur != proposed {
			addLog(f.name, cur, proposed)
		}
	}

	if p.StatusID.Set {
		oldName := "None"
		if inc.Status != nil {
			oldName = inc.Status.Name
		}
		if inc.StatusID == nil || *inc.StatusID != newStatus.ID {
			addLog("Status", oldName, newStatus.Name)
		}
	}
	if p.AgentID.Set {
		oldName := "None"
		if inc.Agent != nil {
			oldName = inc.Agent.Username
		}
		newName := "None"
		if newAgent != nil {
			newName = newAgent.Username
		}
		changed := (inc.AgentID == nil) != (newAgent == nil) ||
			(inc.AgentID != nil && newAgent != nil && *inc.AgentID != newAgent.ID)
		if changed {
			addLog("Agent", oldName, newName)
		}
	}

	if p.InternalNote != nil {
		note := *p.InternalNote
		logs = append(logs, models.ActivityLog{
			IncidentID:   inc.ID,
			UserID:       &caller.UserID,
			ActivityType: models.ActivityNoteAdded,
			Note:         &note,
		})
	}

	for _, f := range trackedFields {
		f.apply(inc, p)
	}
	if p.StatusID.Set {
		id := newStatus.ID
		inc.StatusID = &id
	}
	if p.AgentID.Set {
		if newAgent == nil {
			inc.AgentID = nil
		} else {
			id := newAgent.ID
			inc.AgentID = &id
		}
	}

	if err := s.incidents.Update(ctx, inc, logs); err != nil {
		return nil, err
	}
	if s.metrics != nil && len(logs) > 0 {
		s.metrics.ActivityLogged.Add(float64(len(logs)))
	}
	return s.incidents.Get(ctx, inc.ID)
}

// Duplicate clones the incident into a new row: fresh id, "[DUPLICATE] "
// title prefix, status and agent cleared, everything else copied. The
// created incident is returned.
func (s *IncidentService) Duplicate(ctx context.Context, caller *utils.Claims, id int64) (*models.Incident, error) {
	inc, err := s.Get(ctx, caller, id)
	if err != nil || inc == nil {
		return nil, err
	}
	dup := inc.Clone()
	if err := s.incidents.Create(ctx, dup); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IncidentsCreated.Inc()
	}
	return s.incidents.Get(ctx, dup.ID)
}

func (s *IncidentService) Delete(ctx context.Context, caller *utils.Claims, id int64) (bool, error) {
	inc, err := s.Get(ctx, caller, id)
	if err != nil {
		return false, err
	}
	if inc == nil {
		return false, nil
	}
	if err := s.incidents.Delete(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Attach records an uploaded file against the incident.
func (s *IncidentService) Attach(ctx context.Context, caller *utils.Claims, id int64, url string) error {
	inc, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}
	if inc == nil {
		return repository.ErrNotFound
	}
	return s.incidents.AddAttachment(ctx, &models.Attachment{IncidentID: id, File: url})
}

// CheckSerialization round-trips every visible incident through the JSON
// encoder, reporting the first failure. Diagnostic tooling, not API surface
// proper.
func (s *IncidentService) CheckSerialization(ctx context.Context) error {
	all, err := s.incidents.List(ctx, repository.IncidentFilter{Limit: 500})
	if err != nil {
		return err
	}
	for i := range all {
		if _, err := json.Marshal(&all[i]); err != nil {
			return fmt.Errorf("serialization failed on incident %d: %w", all[i].ID, err)
		}
	}
	return nil
}

func defaultStr(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

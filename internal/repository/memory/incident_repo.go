package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
)

type incidentRepo struct{ s *Store }

func (r *incidentRepo) Create(ctx context.Context, inc *models.Incident) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextIncidentID++
	inc.ID = r.s.nextIncidentID
	inc.SubmittedAt = now()
	inc.CreatedAt = inc.SubmittedAt
	if inc.Tags == nil {
		inc.Tags = []string{}
	}
	r.s.incidents[inc.ID] = storedIncident(inc)
	r.resolveLocked(inc)
	return nil
}

func (r *incidentRepo) Get(ctx context.Context, id int64) (*models.Incident, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.incidents[id]
	if !ok {
		return nil, nil
	}
	inc := storedIncident(stored)
	r.resolveLocked(inc)
	return inc, nil
}

func (r *incidentRepo) List(ctx context.Context, f repository.IncidentFilter) ([]models.Incident, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Incident
	for _, stored := range r.s.incidents {
		if e := strings.TrimSpace(f.RestrictToEmail); e != "" && stored.RequesterEmail != e {
			continue
		}
		if e := strings.TrimSpace(f.RequesterEmail); e != "" && stored.RequesterEmail != e {
			continue
		}
		if a := strings.TrimSpace(f.AgentID); a != "" {
			if stored.AgentID == nil || *stored.AgentID != a {
				continue
			}
		}
		if s := strings.TrimSpace(f.StatusName); s != "" {
			if stored.StatusID == nil {
				continue
			}
			l, ok := r.s.labels[*stored.StatusID]
			if !ok || l.Name != s {
				continue
			}
		}
		inc := storedIncident(stored)
		r.resolveLocked(inc)
		out = append(out, *inc)
	}
	// newest submitted first; id breaks the tie for same-instant rows
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (r *incidentRepo) Update(ctx context.Context, inc *models.Incident, logs []models.ActivityLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.incidents[inc.ID]; !ok {
		return repository.ErrNotFound
	}
	for i := range logs {
		l := logs[i]
		r.s.nextLogID++
		l.ID = r.s.nextLogID
		l.IncidentID = inc.ID
		l.Timestamp = now()
		r.s.logs = append(r.s.logs, l)
	}
	r.s.incidents[inc.ID] = storedIncident(inc)
	r.resolveLocked(inc)
	return nil
}

func (r *incidentRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.incidents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.incidents, id)

	kept := r.s.attachments[:0]
	for _, a := range r.s.attachments {
		if a.IncidentID != id {
			kept = append(kept, a)
		}
	}
	r.s.attachments = kept

	keptLogs := r.s.logs[:0]
	for _, l := range r.s.logs {
		if l.IncidentID != id {
			keptLogs = append(keptLogs, l)
		}
	}
	r.s.logs = keptLogs
	return nil
}

func (r *incidentRepo) AddAttachment(ctx context.Context, a *models.Attachment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.incidents[a.IncidentID]; !ok {
		return repository.ErrNotFound
	}
	r.s.nextAttachmentID++
	a.ID = r.s.nextAttachmentID
	a.UploadedAt = now()
	r.s.attachments = append(r.s.attachments, *a)
	return nil
}

// storedIncident strips nested read-side objects so the stored value only
// carries foreign keys, like a database row.
func storedIncident(inc *models.Incident) *models.Incident {
	c := *inc
	c.Status = nil
	c.Agent = nil
	c.Attachments = nil
	c.ActivityLog = nil
	c.Tags = append([]string(nil), inc.Tags...)
	return &c
}

// resolveLocked populates nested status, agent, attachments and activity log
// on a copy handed back to the caller. Store must be locked.
func (r *incidentRepo) resolveLocked(inc *models.Incident) {
	inc.Status = nil
	if inc.StatusID != nil {
		if l, ok := r.s.labels[*inc.StatusID]; ok {
			c := *l
			inc.Status = &c
		}
	}
	inc.Agent = nil
	if inc.AgentID != nil {
		if u, ok := r.s.users[*inc.AgentID]; ok {
			inc.Agent = u.AsAgentRef()
		}
	}

	inc.Attachments = []models.Attachment{}
	for _, a := range r.s.attachments {
		if a.IncidentID == inc.ID {
			inc.Attachments = append(inc.Attachments, a)
		}
	}

	inc.ActivityLog = []models.ActivityLog{}
	for _, l := range r.s.logs {
		if l.IncidentID != inc.ID {
			continue
		}
		if l.UserID != nil {
			if u, ok := r.s.users[*l.UserID]; ok {
				name := u.FullName()
				l.User = &name
			} else {
				l.User = nil
			}
		}
		inc.ActivityLog = append(inc.ActivityLog, l)
	}
	sort.Slice(inc.ActivityLog, func(i, j int) bool {
		a, b := inc.ActivityLog[i], inc.ActivityLog[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.ID < b.ID
	})
}

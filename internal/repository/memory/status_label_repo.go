package memory

import (
	"context"
	"sort"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
)

type statusLabelRepo struct{ s *Store }

func (r *statusLabelRepo) Create(ctx context.Context, l *models.StatusLabel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ex := range r.s.labels {
		if ex.Name == l.Name {
			return repository.ErrDuplicate
		}
	}
	if l.Color == "" {
		l.Color = models.DefaultLabelColor
	}
	r.s.nextLabelID++
	l.ID = r.s.nextLabelID
	c := *l
	r.s.labels[l.ID] = &c
	return nil
}

func (r *statusLabelRepo) Get(ctx context.Context, id int64) (*models.StatusLabel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.labels[id]
	if !ok {
		return nil, nil
	}
	c := *l
	return &c, nil
}

func (r *statusLabelRepo) GetByName(ctx context.Context, name string) (*models.StatusLabel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.labels {
		if l.Name == name {
			c := *l
			return &c, nil
		}
	}
	return nil, nil
}

func (r *statusLabelRepo) List(ctx context.Context) ([]models.StatusLabel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.StatusLabel, 0, len(r.s.labels))
	for _, l := range r.s.labels {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *statusLabelRepo) Update(ctx context.Context, l *models.StatusLabel) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ex, ok := r.s.labels[l.ID]
	if !ok {
		return repository.ErrNotFound
	}
	for _, other := range r.s.labels {
		if other.ID != l.ID && other.Name == l.Name {
			return repository.ErrDuplicate
		}
	}
	ex.Name = l.Name
	ex.Color = l.Color
	return nil
}

func (r *statusLabelRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.labels[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.labels, id)
	// incidents referencing the label lose their status
	for _, inc := range r.s.incidents {
		if inc.StatusID != nil && *inc.StatusID == id {
			inc.StatusID = nil
		}
	}
	return nil
}

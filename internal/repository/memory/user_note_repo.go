package memory

import (
	"context"
	"sort"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
)

type userNoteRepo struct{ s *Store }

func (r *userNoteRepo) Create(ctx context.Context, n *models.UserNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextNoteID++
	n.ID = r.s.nextNoteID
	n.CreatedAt = now()
	if a, ok := r.s.users[n.AuthorID]; ok {
		n.AuthorName = a.FullName()
	}
	c := *n
	r.s.notes[n.ID] = &c
	return nil
}

func (r *userNoteRepo) Get(ctx context.Context, id int64) (*models.UserNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notes[id]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

func (r *userNoteRepo) List(ctx context.Context, f repository.UserNoteFilter) ([]models.UserNote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.UserNote
	for _, n := range r.s.notes {
		if f.UserProfileID != "" && n.UserProfileID != f.UserProfileID {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *userNoteRepo) Update(ctx context.Context, n *models.UserNote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ex, ok := r.s.notes[n.ID]
	if !ok {
		return repository.ErrNotFound
	}
	ex.Note = n.Note
	return nil
}

func (r *userNoteRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.notes[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.notes, id)
	return nil
}

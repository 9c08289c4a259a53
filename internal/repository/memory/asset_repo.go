package memory

import (
	"context"
	"sort"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
)

type assetRepo struct{ s *Store }

func (r *assetRepo) Create(ctx context.Context, a *models.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkTagLocked(a.Tag, 0); err != nil {
		return err
	}
	r.s.nextAssetID++
	a.ID = r.s.nextAssetID
	c := *a
	r.s.assets[a.ID] = &c
	return nil
}

func (r *assetRepo) Get(ctx context.Context, id int64) (*models.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, ok := r.s.assets[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *assetRepo) List(ctx context.Context) ([]models.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]models.Asset, 0, len(r.s.assets))
	for _, a := range r.s.assets {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *assetRepo) Update(ctx context.Context, a *models.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.assets[a.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.checkTagLocked(a.Tag, a.ID); err != nil {
		return err
	}
	c := *a
	r.s.assets[a.ID] = &c
	return nil
}

func (r *assetRepo) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.assets[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.assets, id)
	return nil
}

// checkTagLocked enforces tag uniqueness when the tag is present.
func (r *assetRepo) checkTagLocked(tag *string, selfID int64) error {
	if tag == nil || *tag == "" {
		return nil
	}
	for _, ex := range r.s.assets {
		if ex.ID != selfID && ex.Tag != nil && *ex.Tag == *tag {
			return repository.ErrDuplicate
		}
	}
	return nil
}

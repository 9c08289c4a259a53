package postgres

import (
	"context"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type StatusLabelRepo struct{ db *pgxpool.Pool }

func NewStatusLabelRepo(db *pgxpool.Pool) repository.StatusLabelRepository {
	return &StatusLabelRepo{db: db}
}

func (r *StatusLabelRepo) Create(ctx context.Context, l *models.StatusLabel) error {
	if l.Color == "" {
		l.Color = models.DefaultLabelColor
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO status_labels (name, color)
		VALUES ($1,$2)
		RETURNING id`, l.Name, l.Color).Scan(&l.ID)
	return mapPgErr(err)
}

func (r *StatusLabelRepo) Get(ctx context.Context, id int64) (*models.StatusLabel, error) {
	var l models.StatusLabel
	err := r.db.QueryRow(ctx, `
		SELECT id, name, color FROM status_labels WHERE id=$1`, id).
		Scan(&l.ID, &l.Name, &l.Color)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *StatusLabelRepo) GetByName(ctx context.Context, name string) (*models.StatusLabel, error) {
	var l models.StatusLabel
	err := r.db.QueryRow(ctx, `
		SELECT id, name, color FROM status_labels WHERE name=$1`, name).
		Scan(&l.ID, &l.Name, &l.Color)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *StatusLabelRepo) List(ctx context.Context) ([]models.StatusLabel, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, color FROM status_labels ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StatusLabel
	for rows.Next() {
		var l models.StatusLabel
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *StatusLabelRepo) Update(ctx context.Context, l *models.StatusLabel) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE status_labels SET name=$1, color=$2 WHERE id=$3`, l.Name, l.Color, l.ID)
	if err != nil {
		return mapPgErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *StatusLabelRepo) Delete(ctx context.Context, id int64) error {
	// incidents pointing at the label fall back to NULL (ON DELETE SET NULL)
	ct, err := r.db.Exec(ctx, `DELETE FROM status_labels WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

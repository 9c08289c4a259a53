package postgres

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserNoteRepo struct{ db *pgxpool.Pool }

func NewUserNoteRepo(db *pgxpool.Pool) repository.UserNoteRepository {
	return &UserNoteRepo{db: db}
}

const userNoteSelect = `
	SELECT n.id, n.user_profile_id, n.author_id,
	       CASE WHEN TRIM(a.first_name || ' ' || a.last_name) = '' THEN a.username
	            ELSE TRIM(a.first_name || ' ' || a.last_name) END,
	       n.note, n.created_at
	FROM user_notes n
	JOIN users a ON a.id = n.author_id`

func (r *UserNoteRepo) Create(ctx context.Context, n *models.UserNote) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO user_notes (user_profile_id, author_id, note)
		VALUES ($1,$2,$3)
		RETURNING id, created_at`,
		n.UserProfileID, n.AuthorID, n.Note,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *UserNoteRepo) Get(ctx context.Context, id int64) (*models.UserNote, error) {
	var n models.UserNote
	err := r.db.QueryRow(ctx, userNoteSelect+` WHERE n.id=$1`, id).
		Scan(&n.ID, &n.UserProfileID, &n.AuthorID, &n.AuthorName, &n.Note, &n.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *UserNoteRepo) List(ctx context.Context, f repository.UserNoteFilter) ([]models.UserNote, error) {
	args := []any{}
	where := ""
	if p := strings.TrimSpace(f.UserProfileID); p != "" {
		// user_profile_id is a uuid column; a malformed filter matches
		// nothing
		if _, err := uuid.Parse(p); err != nil {
			return []models.UserNote{}, nil
		}
		args = append(args, p)
		where = ` WHERE n.user_profile_id = $1`
	}

	rows, err := r.db.Query(ctx, userNoteSelect+where+` ORDER BY n.created_at DESC, n.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UserNote
	for rows.Next() {
		var n models.UserNote
		if err := rows.Scan(&n.ID, &n.UserProfileID, &n.AuthorID, &n.AuthorName, &n.Note, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *UserNoteRepo) Update(ctx context.Context, n *models.UserNote) error {
	ct, err := r.db.Exec(ctx, `UPDATE user_notes SET note=$1 WHERE id=$2`, n.Note, n.ID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserNoteRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM user_notes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

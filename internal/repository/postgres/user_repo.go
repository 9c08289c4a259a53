package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) repository.UserRepository { return &UserRepo{db: db} }

const uniqueViolation = "23505"

func mapPgErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// Create inserts the user row and its group memberships in one transaction.
func (r *UserRepo) Create(ctx context.Context, u *models.User, passwordHash string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO users (username, first_name, last_name, email, password_h, is_active, is_superuser)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at, updated_at`,
		u.Username, u.FirstName, u.LastName, u.Email, passwordHash, u.IsActive, u.IsSuperuser,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapPgErr(err)
	}

	for _, g := range u.Groups {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_groups (user_id, group_id)
			SELECT $1, id FROM groups WHERE name = $2`, u.ID, g); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const userSelect = `
	SELECT u.id, u.username, u.first_name, u.last_name, u.email,
	       u.is_active, u.is_superuser, u.created_at, u.updated_at,
	       COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_groups ug ON ug.user_id = u.id
	LEFT JOIN groups g ON g.id = ug.group_id`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt, &u.Groups)
	if err != nil {
		return nil, err
	}
	if u.Groups == nil {
		u.Groups = []string{}
	}
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	// ids are uuid columns; non-uuid input cannot match and must read as
	// not found, not as a query error
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	u, err := scanUser(r.db.QueryRow(ctx, userSelect+` WHERE u.id = $1 GROUP BY u.id`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	row := r.db.QueryRow(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.email,
		       u.is_active, u.is_superuser, u.created_at, u.updated_at,
		       COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}'),
		       u.password_h
		FROM users u
		LEFT JOIN user_groups ug ON ug.user_id = u.id
		LEFT JOIN groups g ON g.id = ug.group_id
		WHERE u.email = $1
		GROUP BY u.id`, email)

	var u models.User
	var ph string
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Email,
		&u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt, &u.Groups, &ph)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", err
	}
	if u.Groups == nil {
		u.Groups = []string{}
	}
	return &u, ph, nil
}

func (r *UserRepo) List(ctx context.Context, f repository.UserFilter) ([]models.User, error) {
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	clauses := []string{"1=1"}
	args := []any{}

	if g := strings.TrimSpace(f.GroupName); g != "" {
		args = append(args, g)
		clauses = append(clauses, `u.id IN (
			SELECT ug2.user_id FROM user_groups ug2
			JOIN groups g2 ON g2.id = ug2.group_id
			WHERE g2.name = $`+itoa(len(args))+`)`)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := "%" + s + "%"
		args = append(args, p, p, p)
		clauses = append(clauses, "(u.first_name ILIKE $"+itoa(len(args)-2)+
			" OR u.last_name ILIKE $"+itoa(len(args)-1)+
			" OR u.email ILIKE $"+itoa(len(args))+")")
	}
	args = append(args, limit, offset)

	sql := userSelect + `
		WHERE ` + strings.Join(clauses, " AND ") + `
		GROUP BY u.id
		ORDER BY u.first_name ASC, u.last_name ASC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE users SET is_active=$1, updated_at=now() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

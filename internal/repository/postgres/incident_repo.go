package postgres

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IncidentRepo struct{ db *pgxpool.Pool }

func NewIncidentRepo(db *pgxpool.Pool) repository.IncidentRepository {
	return &IncidentRepo{db: db}
}

// Shared SELECT with status/agent joins; keep column order in sync with
// scanIncident.
const incidentSelect = `
	SELECT
		i.id, i.title, i.description, i.priority, i.submitted_at,
		i.requester_name, i.requester_email, i.source, i.urgency, i.impact,
		i."group", i.department, i.category, i.subcategory, i.tags,
		i.created_at, i.due_date, i.first_response_at, i.resolved_at,
		i.status_id, s.name, s.color,
		i.agent_id, COALESCE(u.first_name,''), COALESCE(u.last_name,''), COALESCE(u.username,'')
	FROM incidents i
	LEFT JOIN status_labels s ON s.id = i.status_id
	LEFT JOIN users u ON u.id = i.agent_id`

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var (
		inc       models.Incident
		tags      []byte
		statName  *string
		statColor *string
		agFirst   string
		agLast    string
		agUser    string
	)
	err := row.Scan(
		&inc.ID, &inc.Title, &inc.Description, &inc.Priority, &inc.SubmittedAt,
		&inc.RequesterName, &inc.RequesterEmail, &inc.Source, &inc.Urgency, &inc.Impact,
		&inc.Group, &inc.Department, &inc.Category, &inc.Subcategory, &tags,
		&inc.CreatedAt, &inc.DueDate, &inc.FirstResponseAt, &inc.ResolvedAt,
		&inc.StatusID, &statName, &statColor,
		&inc.AgentID, &agFirst, &agLast, &agUser,
	)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &inc.Tags); err != nil {
			return nil, err
		}
	}
	if inc.Tags == nil {
		inc.Tags = []string{}
	}
	if inc.StatusID != nil && statName != nil {
		inc.Status = &models.StatusLabel{ID: *inc.StatusID, Name: *statName, Color: *statColor}
	}
	if inc.AgentID != nil {
		inc.Agent = &models.AgentRef{ID: *inc.AgentID, FirstName: agFirst, LastName: agLast, Username: agUser}
	}
	return &inc, nil
}

func (r *IncidentRepo) Create(ctx context.Context, inc *models.Incident) error {
	tags, err := json.Marshal(tagsOrEmpty(inc.Tags))
	if err != nil {
		return err
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO incidents
			(title, description, status_id, priority, requester_name, requester_email,
			 agent_id, source, urgency, impact, "group", department, category,
			 subcategory, tags, due_date, first_response_at, resolved_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, submitted_at, created_at`,
		inc.Title, inc.Description, inc.StatusID, inc.Priority,
		inc.RequesterName, inc.RequesterEmail, inc.AgentID,
		inc.Source, inc.Urgency, inc.Impact, inc.Group, inc.Department,
		inc.Category, inc.Subcategory, tags,
		inc.DueDate, inc.FirstResponseAt, inc.ResolvedAt,
	).Scan(&inc.ID, &inc.SubmittedAt, &inc.CreatedAt)
}

func (r *IncidentRepo) Get(ctx context.Context, id int64) (*models.Incident, error) {
	inc, err := scanIncident(r.db.QueryRow(ctx, incidentSelect+` WHERE i.id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, []*models.Incident{inc}); err != nil {
		return nil, err
	}
	return inc, nil
}

func (r *IncidentRepo) List(ctx context.Context, f repository.IncidentFilter) ([]models.Incident, error) {
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

	if e := strings.TrimSpace(f.RestrictToEmail); e != "" {
		args = append(args, e)
		clauses = append(clauses, "i.requester_email = $"+itoa(len(args)))
	}
	if e := strings.TrimSpace(f.RequesterEmail); e != "" {
		args = append(args, e)
		clauses = append(clauses, "i.requester_email = $"+itoa(len(args)))
	}
	if a := strings.TrimSpace(f.AgentID); a != "" {
		// agent_id is a uuid column; a malformed filter matches nothing
		if _, err := uuid.Parse(a); err != nil {
			return []models.Incident{}, nil
		}
		args = append(args, a)
		clauses = append(clauses, "i.agent_id = $"+itoa(len(args))+"::uuid")
	}
	if s := strings.TrimSpace(f.StatusName); s != "" {
		args = append(args, s)
		clauses = append(clauses, "s.name = $"+itoa(len(args)))
	}
	args = append(args, limit, offset)

	sql := incidentSelect + `
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY i.submitted_at DESC
		LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Incident
	var refs []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for idx := range out {
		refs = append(refs, &out[idx])
	}
	if err := r.loadChildren(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *IncidentRepo) Update(ctx context.Context, inc *models.Incident, logs []models.ActivityLog) error {
	tags, err := json.Marshal(tagsOrEmpty(inc.Tags))
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range logs {
		l := &logs[i]
		err := tx.QueryRow(ctx, `
			INSERT INTO activity_logs (incident_id, user_id, activity_type, old_value, new_value, note)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING id, timestamp`,
			inc.ID, l.UserID, l.ActivityType, l.OldValue, l.NewValue, l.Note,
		).Scan(&l.ID, &l.Timestamp)
		if err != nil {
			return err
		}
	}

	ct, err := tx.Exec(ctx, `
		UPDATE incidents SET
			title=$1, description=$2, status_id=$3, priority=$4,
			requester_name=$5, requester_email=$6, agent_id=$7,
			source=$8, urgency=$9, impact=$10, "group"=$11, department=$12,
			category=$13, subcategory=$14, tags=$15,
			due_date=$16, first_response_at=$17, resolved_at=$18
		WHERE id=$19`,
		inc.Title, inc.Description, inc.StatusID, inc.Priority,
		inc.RequesterName, inc.RequesterEmail, inc.AgentID,
		inc.Source, inc.Urgency, inc.Impact, inc.Group, inc.Department,
		inc.Category, inc.Subcategory, tags,
		inc.DueDate, inc.FirstResponseAt, inc.ResolvedAt, inc.ID,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *IncidentRepo) Delete(ctx context.Context, id int64) error {
	// attachments and activity logs go with it (ON DELETE CASCADE)
	ct, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *IncidentRepo) AddAttachment(ctx context.Context, a *models.Attachment) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO attachments (incident_id, file_path)
		VALUES ($1,$2)
		RETURNING id, uploaded_at`,
		a.IncidentID, a.File,
	).Scan(&a.ID, &a.UploadedAt)
}

// loadChildren batch-loads attachments and activity logs for the given
// incidents, avoiding a query pair per row on list.
func (r *IncidentRepo) loadChildren(ctx context.Context, incs []*models.Incident) error {
	if len(incs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(incs))
	byID := make(map[int64]*models.Incident, len(incs))
	for _, inc := range incs {
		inc.Attachments = []models.Attachment{}
		inc.ActivityLog = []models.ActivityLog{}
		ids = append(ids, inc.ID)
		byID[inc.ID] = inc
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, incident_id, file_path, uploaded_at
		FROM attachments
		WHERE incident_id = ANY($1)
		ORDER BY uploaded_at ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Attachment
		if err := rows.Scan(&a.ID, &a.IncidentID, &a.File, &a.UploadedAt); err != nil {
			return err
		}
		inc := byID[a.IncidentID]
		inc.Attachments = append(inc.Attachments, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	logRows, err := r.db.Query(ctx, `
		SELECT
			a.id, a.incident_id, a.user_id,
			CASE WHEN u.id IS NULL THEN NULL
			     WHEN TRIM(u.first_name || ' ' || u.last_name) = '' THEN u.username
			     ELSE TRIM(u.first_name || ' ' || u.last_name) END,
			a.activity_type, a.old_value, a.new_value, a.note, a.timestamp
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.incident_id = ANY($1)
		ORDER BY a.timestamp ASC, a.id ASC`, ids)
	if err != nil {
		return err
	}
	defer logRows.Close()
	for logRows.Next() {
		var l models.ActivityLog
		if err := logRows.Scan(&l.ID, &l.IncidentID, &l.UserID, &l.User,
			&l.ActivityType, &l.OldValue, &l.NewValue, &l.Note, &l.Timestamp); err != nil {
			return err
		}
		inc := byID[l.IncidentID]
		inc.ActivityLog = append(inc.ActivityLog, l)
	}
	return logRows.Err()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// small helper to avoid fmt for query building.
func itoa(i int) string { return strconv.Itoa(i) }

package postgres

import (
	"context"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AssetRepo struct{ db *pgxpool.Pool }

func NewAssetRepo(db *pgxpool.Pool) repository.AssetRepository { return &AssetRepo{db: db} }

func (r *AssetRepo) Create(ctx context.Context, a *models.Asset) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO assets
			(name, tag, asset_type, impact, description, end_of_life,
			 location, department, managed_by_group, managed_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		a.Name, a.Tag, a.AssetType, a.Impact, a.Description, a.EndOfLife,
		a.Location, a.Department, a.ManagedByGroup, a.ManagedBy,
	).Scan(&a.ID)
	return mapPgErr(err)
}

func (r *AssetRepo) Get(ctx context.Context, id int64) (*models.Asset, error) {
	var a models.Asset
	err := r.db.QueryRow(ctx, `
		SELECT id, name, tag, asset_type, impact, description, end_of_life,
		       location, department, managed_by_group, managed_by
		FROM assets WHERE id=$1`, id).
		Scan(&a.ID, &a.Name, &a.Tag, &a.AssetType, &a.Impact, &a.Description,
			&a.EndOfLife, &a.Location, &a.Department, &a.ManagedByGroup, &a.ManagedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepo) List(ctx context.Context) ([]models.Asset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, tag, asset_type, impact, description, end_of_life,
		       location, department, managed_by_group, managed_by
		FROM assets ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Asset
	for rows.Next() {
		var a models.Asset
		if err := rows.Scan(&a.ID, &a.Name, &a.Tag, &a.AssetType, &a.Impact,
			&a.Description, &a.EndOfLife, &a.Location, &a.Department,
			&a.ManagedByGroup, &a.ManagedBy); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AssetRepo) Update(ctx context.Context, a *models.Asset) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE assets SET
			name=$1, tag=$2, asset_type=$3, impact=$4, description=$5,
			end_of_life=$6, location=$7, department=$8, managed_by_group=$9, managed_by=$10
		WHERE id=$11`,
		a.Name, a.Tag, a.AssetType, a.Impact, a.Description, a.EndOfLife,
		a.Location, a.Department, a.ManagedByGroup, a.ManagedBy, a.ID)
	if err != nil {
		return mapPgErr(err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AssetRepo) Delete(ctx context.Context, id int64) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM assets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

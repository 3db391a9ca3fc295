package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/systemcontrol/defect-service/internal/domain"
)

// DefectRepository encapsulates defect persistence.
type DefectRepository interface {
	Create(ctx context.Context, defect *domain.Defect) error
	Update(ctx context.Context, defect *domain.Defect) error
	GetByID(ctx context.Context, id int64) (*domain.Defect, error)
	List(ctx context.Context) ([]domain.Defect, error)
	ListByProject(ctx context.Context, projectID int64) ([]domain.Defect, error)
	Delete(ctx context.Context, id int64) error
}

type defectRepository struct {
	db Querier
}

const defectColumns = `id, title, description, priority, status, assignee_id, project_id, due_date, created_at, updated_at`

func (r *defectRepository) Create(ctx context.Context, defect *domain.Defect) error {
	const query = `
        INSERT INTO defects (title, description, priority, status, assignee_id, project_id, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		defect.Title,
		defect.Description,
		defect.Priority,
		defect.Status,
		defect.AssigneeID,
		defect.ProjectID,
		defect.DueDate,
	).Scan(&defect.ID, &defect.CreatedAt, &defect.UpdatedAt)
}

func (r *defectRepository) Update(ctx context.Context, defect *domain.Defect) error {
	const query = `
        UPDATE defects SET title=$1, description=$2, priority=$3, status=$4,
            assignee_id=$5, project_id=$6, due_date=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		defect.Title,
		defect.Description,
		defect.Priority,
		defect.Status,
		defect.AssigneeID,
		defect.ProjectID,
		defect.DueDate,
		defect.ID,
	).Scan(&defect.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func (r *defectRepository) GetByID(ctx context.Context, id int64) (*domain.Defect, error) {
	const query = `SELECT ` + defectColumns + ` FROM defects WHERE id=$1`
	var defect domain.Defect
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&defect.ID,
		&defect.Title,
		&defect.Description,
		&defect.Priority,
		&defect.Status,
		&defect.AssigneeID,
		&defect.ProjectID,
		&defect.DueDate,
		&defect.CreatedAt,
		&defect.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &defect, nil
}

func (r *defectRepository) List(ctx context.Context) ([]domain.Defect, error) {
	const query = `SELECT ` + defectColumns + ` FROM defects ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefects(rows)
}

func (r *defectRepository) ListByProject(ctx context.Context, projectID int64) ([]domain.Defect, error) {
	const query = `SELECT ` + defectColumns + ` FROM defects WHERE project_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDefects(rows)
}

// Delete removes a defect. Deleting a missing id is a no-op; history rows and
// comments go with the defect via FK cascade.
func (r *defectRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM defects WHERE id=$1`, id)
	return err
}

func scanDefects(rows pgx.Rows) ([]domain.Defect, error) {
	var result []domain.Defect
	for rows.Next() {
		var defect domain.Defect
		if err := rows.Scan(
			&defect.ID,
			&defect.Title,
			&defect.Description,
			&defect.Priority,
			&defect.Status,
			&defect.AssigneeID,
			&defect.ProjectID,
			&defect.DueDate,
			&defect.CreatedAt,
			&defect.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, defect)
	}
	return result, rows.Err()
}

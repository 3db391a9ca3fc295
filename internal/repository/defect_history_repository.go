package repository

import (
	"context"

	"github.com/systemcontrol/defect-service/internal/domain"
)

// DefectHistoryRepository stores audit entries. The trail is append-only:
// there is no update or delete operation.
type DefectHistoryRepository interface {
	Create(ctx context.Context, entry *domain.DefectHistory) error
	ListByDefect(ctx context.Context, defectID int64) ([]domain.DefectHistory, error)
}

type defectHistoryRepository struct {
	db Querier
}

func (r *defectHistoryRepository) Create(ctx context.Context, entry *domain.DefectHistory) error {
	const query = `
        INSERT INTO defect_history (defect_id, user_id, field_name, old_value, new_value, action)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.DefectID,
		entry.UserID,
		entry.FieldName,
		entry.OldValue,
		entry.NewValue,
		entry.Action,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *defectHistoryRepository) ListByDefect(ctx context.Context, defectID int64) ([]domain.DefectHistory, error) {
	const query = `
        SELECT id, defect_id, user_id, field_name, old_value, new_value, action, created_at
        FROM defect_history WHERE defect_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, defectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DefectHistory
	for rows.Next() {
		var entry domain.DefectHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.DefectID,
			&entry.UserID,
			&entry.FieldName,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Action,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

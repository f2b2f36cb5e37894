package repository

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/visra-dev/visrabackend/models"
)

const defaultLogLimit = 200

// sqlite uses ? placeholders
var logBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// GormActivityLogRepository stores audit records via GORM and reads them
// back with dynamically built SQL, since the admin log screen filters on any
// combination of user, action and status.
type GormActivityLogRepository struct {
	db *gorm.DB
}

func NewGormActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

func (r *GormActivityLogRepository) Insert(entry *models.ActivityLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

func (r *GormActivityLogRepository) List(filter ActivityLogFilter) ([]models.ActivityLog, error) {
	queryBuilder := logBuilder.Select("id", "created_at", "user_id", "action", "details", "status").
		From("activity_logs").
		OrderBy("created_at DESC", "id DESC")

	if filter.UserID != 0 {
		queryBuilder = queryBuilder.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Action != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"action": filter.Action})
	}
	if filter.Status != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"status": filter.Status})
	}
	limit := filter.Limit
	if limit == 0 {
		limit = defaultLogLimit
	}
	queryBuilder = queryBuilder.Limit(limit)

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for activity logs: %w", err)
	}

	sqlDB, err := r.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	rows, err := sqlDB.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []models.ActivityLog
	for rows.Next() {
		var entry models.ActivityLog
		if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.UserID, &entry.Action, &entry.Details, &entry.Status); err != nil {
			return nil, fmt.Errorf("failed to scan activity log row: %w", err)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating activity log rows: %w", err)
	}
	return logs, nil
}

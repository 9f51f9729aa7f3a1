package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/taskdeck/internal/models"
	"github.com/desertthunder/taskdeck/internal/shared"
)

// DefaultHistoryLimit caps [NoticeRepository.List] when no limit is given.
const DefaultHistoryLimit = 50

// NoticeRepository persists engine notices.
type NoticeRepository struct {
	db *sql.DB
}

// NewNoticeRepository creates a new NoticeRepository with the given database connection
func NewNoticeRepository(db *sql.DB) *NoticeRepository {
	return &NoticeRepository{db: db}
}

// Create inserts n with a generated ID and the next sequence number, both written back to n.
func (r *NoticeRepository) Create(ctx context.Context, n *models.Notice) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(ctx, tx, "notices")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	id := shared.GenerateID()

	query := `
		INSERT INTO notices (id, sequence, level, action, task_ids, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		id,
		sequence,
		string(n.Level),
		n.Action,
		shared.FormatIDs(n.TaskIDs),
		n.Message,
		n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notice: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notice: %w", err)
	}

	n.ID = id
	n.Sequence = sequence
	return nil
}

// List returns up to limit notices, newest first. A limit <= 0 uses [DefaultHistoryLimit].
func (r *NoticeRepository) List(ctx context.Context, limit int) ([]models.Notice, error) {
	return r.query(ctx, "", limit)
}

// ListByAction returns up to limit notices for one action, newest first.
func (r *NoticeRepository) ListByAction(ctx context.Context, action string, limit int) ([]models.Notice, error) {
	return r.query(ctx, "WHERE action = ?", limit, action)
}

func (r *NoticeRepository) query(ctx context.Context, where string, limit int, args ...any) ([]models.Notice, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, sequence, level, action, task_ids, message, created_at
		FROM notices
		` + where + `
		ORDER BY sequence DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notices: %w", err)
	}
	defer rows.Close()

	var notices []models.Notice
	for rows.Next() {
		n, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		notices = append(notices, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notices: %w", err)
	}
	return notices, nil
}

// Count returns the number of stored notices.
func (r *NoticeRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notices").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count notices: %w", err)
	}
	return n, nil
}

// Clear deletes every notice and returns how many were removed. The sequence is not reset.
func (r *NoticeRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM notices")
	if err != nil {
		return 0, fmt.Errorf("failed to clear notices: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

func (r *NoticeRepository) scan(rows *sql.Rows) (*models.Notice, error) {
	var (
		n       models.Notice
		level   string
		taskIDs string
	)
	if err := rows.Scan(&n.ID, &n.Sequence, &level, &n.Action, &taskIDs, &n.Message, &n.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan notice: %w", err)
	}

	ids, err := shared.ParseIDs(taskIDs)
	if err != nil {
		return nil, fmt.Errorf("corrupt task_ids for notice %s: %w", n.ID, err)
	}
	n.Level = models.Level(level)
	n.TaskIDs = ids
	return &n, nil
}

// NoticeRecorder implements tasks.Recorder using NoticeRepository.
type NoticeRecorder struct {
	repo *NoticeRepository
}

// NewNoticeRecorder creates a new NoticeRecorder with the given repository
func NewNoticeRecorder(repo *NoticeRepository) *NoticeRecorder {
	return &NoticeRecorder{repo: repo}
}

// RecordNotice stores a copy of n so the caller's value is left untouched.
func (a *NoticeRecorder) RecordNotice(ctx context.Context, n models.Notice) error {
	if err := a.repo.Create(ctx, &n); err != nil {
		return fmt.Errorf("failed to record notice: %w", err)
	}
	return nil
}

// Package repository provides PostgreSQL access to the checklist, delegation,
// user and holiday tables backing the dashboard.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/calendar"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(connectionString string) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Migrate creates the tables the dashboard needs if they are missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func table(category task.Category) (string, error) {
	name := category.Table()
	if name == "" {
		return "", fmt.Errorf("%w: %q", task.ErrUnknownCategory, category)
	}
	return name, nil
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		log.Printf("failed to close rows: %v", err)
	}
}

// FetchStaffTasks returns one page of per-staff metrics for a category,
// counting only tasks already due. Staff are ordered by name.
func (r *PostgresRepository) FetchStaffTasks(ctx context.Context, category task.Category, staffFilter string, page, pageSize int) ([]task.Metric, error) {
	tbl, err := table(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			name,
			COALESCE(MAX(email), '') AS email,
			COUNT(*) AS total_tasks,
			COUNT(*) FILTER (WHERE submission_date IS NOT NULL) AS completed_tasks
		FROM %s
		WHERE ($1 = 'all' OR name = $1)
			AND planned_date <= NOW()
		GROUP BY name
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, tbl)

	rows, err := r.db.QueryContext(ctx, query, staffParam(staffFilter), pageSize, offset(page, pageSize))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	metrics := []task.Metric{}
	for rows.Next() {
		var name, email string
		var total, completed int

		if err := rows.Scan(&name, &email, &total, &completed); err != nil {
			return nil, err
		}

		metrics = append(metrics, task.NewMetric(name, email, total, completed))
	}

	return metrics, rows.Err()
}

func (r *PostgresRepository) GetStaffTasksCount(ctx context.Context, category task.Category, staffFilter string) (int, error) {
	tbl, err := table(category)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		SELECT COUNT(DISTINCT name)
		FROM %s
		WHERE ($1 = 'all' OR name = $1)
			AND planned_date <= NOW()
	`, tbl)

	var count int
	if err := r.db.QueryRowContext(ctx, query, staffParam(staffFilter)).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PostgresRepository) GetTotalUsersCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PostgresRepository) ListTasks(ctx context.Context, category task.Category, staffFilter string, page, pageSize int) ([]task.Task, error) {
	tbl, err := table(category)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			id, name, COALESCE(email, ''), description, frequency,
			status, planned_date, submission_date, COALESCE(remarks, '')
		FROM %s
		WHERE ($1 = 'all' OR name = $1)
		ORDER BY planned_date DESC, id DESC
		LIMIT $2 OFFSET $3
	`, tbl)

	rows, err := r.db.QueryContext(ctx, query, staffParam(staffFilter), pageSize, offset(page, pageSize))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	tasks := []task.Task{}
	for rows.Next() {
		t := task.Task{Category: category}
		var status string
		var submittedAt sql.NullTime

		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Email,
			&t.Description,
			&t.Frequency,
			&status,
			&t.PlannedDate,
			&submittedAt,
			&t.Remarks,
		); err != nil {
			return nil, err
		}

		t.Status = task.Status(status)
		if submittedAt.Valid {
			t.SubmittedAt = &submittedAt.Time
		}

		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

// CompleteTask marks one task done. A task that was already submitted keeps
// its original submission time.
func (r *PostgresRepository) CompleteTask(ctx context.Context, category task.Category, id int64, remarks string) error {
	tbl, err := table(category)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET status = 'completed',
		    submission_date = COALESCE(submission_date, NOW()),
		    remarks = NULLIF($1, '')
		WHERE id = $2
	`, tbl)

	res, err := r.db.ExecContext(ctx, query, remarks, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s task %d: %w", category, id, ErrNotFound)
	}

	return nil
}

func (r *PostgresRepository) ListHolidays(ctx context.Context, from, to time.Time) ([]calendar.Holiday, error) {
	query := `
		SELECT id, holiday_date, description
		FROM holidays
		WHERE holiday_date BETWEEN $1 AND $2
		ORDER BY holiday_date
	`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	holidays := []calendar.Holiday{}
	for rows.Next() {
		var h calendar.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Description); err != nil {
			return nil, err
		}

		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

func (r *PostgresRepository) AddHoliday(ctx context.Context, h *calendar.Holiday) error {
	query := `
		INSERT INTO holidays (holiday_date, description)
		VALUES ($1, $2)
		ON CONFLICT (holiday_date) DO UPDATE SET description = EXCLUDED.description
		RETURNING id
	`

	return r.db.QueryRowContext(ctx, query, h.Date, h.Description).Scan(&h.ID)
}

func (r *PostgresRepository) DeleteHoliday(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("holiday %d: %w", id, ErrNotFound)
	}

	return nil
}

func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/calendar"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := &PostgresRepository{db: db}
	return db, mock, repo
}

func TestNewPostgresRepository(t *testing.T) {
	t.Run("successful connection", func(t *testing.T) {
		t.Skip("Integration test - requires real database")
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := NewPostgresRepository("invalid connection string")
		assert.Error(t, err)
	})
}

func TestMigrate(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	t.Run("applies schema", func(t *testing.T) {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, repo.Migrate(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("schema error", func(t *testing.T) {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
			WillReturnError(errors.New("permission denied"))

		err := repo.Migrate(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to apply schema")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFetchStaffTasks(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	t.Run("first page for all staff", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"name", "email", "total_tasks", "completed_tasks"}).
			AddRow("Alice", "alice@example.com", 5, 2).
			AddRow("Bob", "", 0, 0)

		mock.ExpectQuery("SELECT name.*FROM checklist WHERE.*GROUP BY name ORDER BY name LIMIT").
			WithArgs("all", 50, 0).
			WillReturnRows(rows)

		metrics, err := repo.FetchStaffTasks(ctx, task.CategoryChecklist, "", 1, 50)
		require.NoError(t, err)
		require.Len(t, metrics, 2)

		assert.Equal(t, "Alice", metrics[0].Name)
		assert.Equal(t, "alice@example.com", metrics[0].Email)
		assert.Equal(t, 5, metrics[0].TotalTasks)
		assert.Equal(t, 2, metrics[0].CompletedTasks)
		assert.Equal(t, 3, metrics[0].PendingTasks)
		assert.Equal(t, 40, metrics[0].Progress)
		assert.Equal(t, 0, metrics[1].Progress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("named staff third page", func(t *testing.T) {
		mock.ExpectQuery("SELECT name.*FROM delegation").
			WithArgs("Alice", 10, 20).
			WillReturnRows(sqlmock.NewRows([]string{"name", "email", "total_tasks", "completed_tasks"}))

		metrics, err := repo.FetchStaffTasks(ctx, task.CategoryDelegation, "Alice", 3, 10)
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.Empty(t, metrics)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown category never queries", func(t *testing.T) {
		_, err := repo.FetchStaffTasks(ctx, task.Category("users"), "all", 1, 10)
		assert.ErrorIs(t, err, task.ErrUnknownCategory)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT name.*FROM checklist").
			WithArgs("all", 10, 0).
			WillReturnError(sql.ErrConnDone)

		_, err := repo.FetchStaffTasks(ctx, task.CategoryChecklist, "all", 1, 10)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetStaffTasksCount(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	t.Run("counts distinct staff", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(DISTINCT name\\) FROM checklist").
			WithArgs("all").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

		count, err := repo.GetStaffTasksCount(ctx, task.CategoryChecklist, "ALL")
		require.NoError(t, err)
		assert.Equal(t, 17, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(DISTINCT name\\) FROM delegation").
			WithArgs("Bob").
			WillReturnError(errors.New("boom"))

		_, err := repo.GetStaffTasksCount(ctx, task.CategoryDelegation, "Bob")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTotalUsersCount(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.GetTotalUsersCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTasks(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	planned := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	submitted := planned.Add(2 * time.Hour)

	t.Run("maps rows", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "email", "description", "frequency",
			"status", "planned_date", "submission_date", "remarks",
		}).
			AddRow(int64(2), "Alice", "alice@example.com", "Stock check", "daily", "completed", planned, submitted, "done").
			AddRow(int64(1), "Alice", "", "Audit", "weekly", "pending", planned, nil, "")

		mock.ExpectQuery("SELECT.*FROM checklist WHERE.*ORDER BY planned_date DESC").
			WithArgs("Alice", 25, 25).
			WillReturnRows(rows)

		tasks, err := repo.ListTasks(ctx, task.CategoryChecklist, "Alice", 2, 25)
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		assert.Equal(t, int64(2), tasks[0].ID)
		assert.Equal(t, task.CategoryChecklist, tasks[0].Category)
		assert.Equal(t, task.StatusCompleted, tasks[0].Status)
		require.NotNil(t, tasks[0].SubmittedAt)
		assert.True(t, submitted.Equal(*tasks[0].SubmittedAt))
		assert.Equal(t, "done", tasks[0].Remarks)

		assert.Nil(t, tasks[1].SubmittedAt)
		assert.Equal(t, task.StatusPending, tasks[1].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scan error", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id"}).AddRow(1)
		mock.ExpectQuery("SELECT.*FROM delegation").
			WithArgs("all", 10, 0).
			WillReturnRows(rows)

		_, err := repo.ListTasks(ctx, task.CategoryDelegation, "all", 1, 10)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCompleteTask(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	t.Run("marks task completed", func(t *testing.T) {
		mock.ExpectExec("UPDATE delegation SET status = 'completed'").
			WithArgs("checked twice", int64(12)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CompleteTask(ctx, task.CategoryDelegation, 12, "checked twice")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing task", func(t *testing.T) {
		mock.ExpectExec("UPDATE checklist SET status = 'completed'").
			WithArgs("", int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.CompleteTask(ctx, task.CategoryChecklist, 99, "")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHolidays(t *testing.T) {
	db, mock, repo := setupMockDB(t)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 31, 0, 0, 0, 0, time.UTC)
	diwali := time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC)

	t.Run("list", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "holiday_date", "description"}).
			AddRow(int64(1), time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), "Gandhi Jayanti")

		mock.ExpectQuery("SELECT id, holiday_date, description FROM holidays").
			WithArgs(from, to).
			WillReturnRows(rows)

		holidays, err := repo.ListHolidays(ctx, from, to)
		require.NoError(t, err)
		require.Len(t, holidays, 1)
		assert.Equal(t, "Gandhi Jayanti", holidays[0].Description)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("add", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO holidays").
			WithArgs(diwali, "Diwali").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

		h := &calendar.Holiday{Date: diwali, Description: "Diwali"}
		require.NoError(t, repo.AddHoliday(ctx, h))
		assert.Equal(t, int64(7), h.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM holidays WHERE id").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteHoliday(ctx, 7))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete missing", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM holidays WHERE id").
			WithArgs(int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteHoliday(ctx, 8), ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

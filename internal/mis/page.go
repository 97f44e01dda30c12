// Package mis builds the MIS report: a paged, per-staff view of checklist and
// delegation progress merged from two independently paged categories.
package mis

import (
	"context"
	"fmt"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/metrics"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/staff"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 50
	// AvailablePageSize bounds the one-off fetch that lists selectable staff.
	AvailablePageSize = 100
)

// Source is the remote data source the report is built from.
type Source interface {
	FetchStaffTasks(ctx context.Context, category task.Category, staffFilter string, page, pageSize int) ([]task.Metric, error)
	GetStaffTasksCount(ctx context.Context, category task.Category, staffFilter string) (int, error)
	GetTotalUsersCount(ctx context.Context) (int, error)
}

const (
	OpFetchStaffTasks = "fetch_staff_tasks"
	OpStaffTasksCount = "staff_tasks_count"
	OpTotalUsersCount = "total_users_count"
)

// FetchError is a failed call to the Source.
type FetchError struct {
	Op       string
	Category task.Category
	Page     int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	if e.Page > 0 {
		return fmt.Sprintf("%s %s page %d failed: %v", e.Op, e.Category, e.Page, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Category, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func fetchFailed(op string, category task.Category, page int, err error) error {
	metrics.RecordRemoteFetchFailure(op, string(category))
	return &FetchError{Op: op, Category: category, Page: page, Err: err}
}

type pageResult struct {
	records         []staff.Record
	totalStaffCount int
	totalUsersCount int
}

func fetchCategories(ctx context.Context, src Source, filter string, page, pageSize int) ([]task.Metric, []task.Metric, error) {
	var checklist, delegation []task.Metric

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := src.FetchStaffTasks(gctx, task.CategoryChecklist, filter, page, pageSize)
		if err != nil {
			return fetchFailed(OpFetchStaffTasks, task.CategoryChecklist, page, err)
		}
		checklist = m
		return nil
	})
	g.Go(func() error {
		m, err := src.FetchStaffTasks(gctx, task.CategoryDelegation, filter, page, pageSize)
		if err != nil {
			return fetchFailed(OpFetchStaffTasks, task.CategoryDelegation, page, err)
		}
		delegation = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return checklist, delegation, nil
}

// fetchPage loads one merged page. The first page also carries the staff and
// user totals, fetched alongside the two category pages.
func fetchPage(ctx context.Context, src Source, filter string, page, pageSize int) (pageResult, error) {
	var res pageResult
	var checklist, delegation []task.Metric

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		checklist, delegation, err = fetchCategories(gctx, src, filter, page, pageSize)
		return err
	})

	if page == 1 {
		g.Go(func() error {
			n, err := src.GetStaffTasksCount(gctx, task.CategoryChecklist, filter)
			if err != nil {
				return fetchFailed(OpStaffTasksCount, task.CategoryChecklist, 0, err)
			}
			res.totalStaffCount = n
			return nil
		})
		g.Go(func() error {
			n, err := src.GetTotalUsersCount(gctx)
			if err != nil {
				return fetchFailed(OpTotalUsersCount, "", 0, err)
			}
			res.totalUsersCount = n
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return pageResult{}, err
	}

	res.records = staff.Combine(checklist, delegation)
	return res, nil
}

// LoadPage fetches one page of each category and merges them.
func LoadPage(ctx context.Context, src Source, filter string, page, pageSize int) ([]staff.Record, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	checklist, delegation, err := fetchCategories(ctx, src, filter, page, pageSize)
	if err != nil {
		return nil, err
	}

	return staff.Combine(checklist, delegation), nil
}

// Available lists the staff names a viewer can pick as a filter. It is a
// one-off snapshot and is not refreshed as more report pages load.
func Available(ctx context.Context, src Source, viewer staff.Viewer) ([]string, error) {
	checklist, delegation, err := fetchCategories(ctx, src, task.AllStaff, 1, AvailablePageSize)
	if err != nil {
		return nil, err
	}

	return staff.AvailableNames(checklist, delegation, viewer), nil
}

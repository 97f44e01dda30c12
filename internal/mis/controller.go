package mis

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/metrics"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/staff"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

// ErrSuperseded is returned for a page that finished loading after the filter
// it was requested for had been replaced. Its result is discarded.
var ErrSuperseded = errors.New("page load superseded by a newer filter")

// State is a snapshot of the paged report for one filter.
type State struct {
	Filter          string         `json:"filter"`
	CurrentPage     int            `json:"current_page"`
	PageSize        int            `json:"page_size"`
	Items           []staff.Record `json:"items"`
	HasMore         bool           `json:"has_more"`
	Loading         bool           `json:"loading"`
	TotalStaffCount int            `json:"total_staff_count"`
	TotalUsersCount int            `json:"total_users_count"`
	Generation      uint64         `json:"generation"`
}

func (s State) clone() State {
	items := make([]staff.Record, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	return s
}

// Controller owns the paging state of one report. Only one load per filter
// generation runs at a time; a filter change starts a new generation and any
// load still running for the old one is ignored when it returns.
type Controller struct {
	src   Source
	mu    sync.Mutex
	state State
}

func NewController(src Source, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &Controller{
		src: src,
		state: State{
			Filter:      task.AllStaff,
			CurrentPage: 1,
			PageSize:    pageSize,
			Items:       []staff.Record{},
			HasMore:     true,
		},
	}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.clone()
}

// Restore replaces the controller state with a previously taken snapshot.
// A load that was in flight when the snapshot was taken is not resumed.
func (c *Controller) Restore(s State) {
	s = s.clone()
	s.Loading = false
	if s.PageSize <= 0 {
		s.PageSize = DefaultPageSize
	}
	if s.CurrentPage < 1 {
		s.CurrentPage = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s.Generation = max(s.Generation, c.state.Generation) + 1
	c.state = s
}

// Reset clears the report for filter and loads its first page.
func (c *Controller) Reset(ctx context.Context, filter string) error {
	c.mu.Lock()
	c.state.Generation++
	gen := c.state.Generation
	c.state.Filter = filter
	c.state.CurrentPage = 1
	c.state.Items = []staff.Record{}
	c.state.HasMore = true
	c.state.Loading = true
	pageSize := c.state.PageSize
	c.mu.Unlock()

	return c.load(ctx, gen, filter, 1, pageSize)
}

// LoadMore loads the page after the current one. It reports false without
// fetching when a load is already running or the report is exhausted.
func (c *Controller) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if c.state.Loading || !c.state.HasMore {
		c.mu.Unlock()
		return false, nil
	}

	c.state.Loading = true
	gen := c.state.Generation
	filter := c.state.Filter
	page := c.state.CurrentPage + 1
	pageSize := c.state.PageSize
	c.mu.Unlock()

	return true, c.load(ctx, gen, filter, page, pageSize)
}

func (c *Controller) load(ctx context.Context, gen uint64, filter string, page, pageSize int) error {
	start := time.Now()
	res, err := fetchPage(ctx, c.src, filter, page, pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.state.Generation {
		metrics.RecordStaleResponse()
		log.Printf("dropping page %d for stale filter %q", page, filter)
		return ErrSuperseded
	}

	c.state.Loading = false

	if err != nil {
		metrics.RecordPageLoadFailed(page, time.Since(start))
		log.Printf("failed to load page %d for filter %q: %v", page, filter, err)
		return err
	}

	metrics.RecordPageLoad(page, len(res.records), time.Since(start))

	if page == 1 {
		c.state.CurrentPage = 1
		c.state.Items = res.records
		c.state.TotalStaffCount = res.totalStaffCount
		c.state.TotalUsersCount = res.totalUsersCount
		c.state.HasMore = len(res.records) == pageSize
		return nil
	}

	c.state.CurrentPage = page
	if len(res.records) == 0 {
		c.state.HasMore = false
		return nil
	}

	c.state.Items = append(c.state.Items, res.records...)
	c.state.HasMore = len(res.records) == pageSize
	return nil
}

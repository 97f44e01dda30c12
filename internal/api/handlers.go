package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/calendar"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/dashboard"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/httputil"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/metrics"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/middleware"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/repository"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/session"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxTaskPageSize = 200

type API struct {
	repo     repository.Repository
	registry *session.Registry
	pageSize int
	mux      *http.ServeMux
	handler  http.Handler
}

type CompleteTaskRequest struct {
	Remarks string `json:"remarks"`
}

type HolidayRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

type TaskPage struct {
	Category task.Category `json:"category"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	HasMore  bool          `json:"has_more"`
	Tasks    []task.Task   `json:"tasks"`
}

type HolidayRange struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	WorkingDays int                `json:"working_days"`
	Holidays    []calendar.Holiday `json:"holidays"`
}

func NewAPI(repo repository.Repository, reg *session.Registry, pageSize int) *API {
	api := &API{
		repo:     repo,
		registry: reg,
		pageSize: pageSize,
		mux:      http.NewServeMux(),
	}

	api.setupRoutes()
	api.handler = middleware.MetricsMiddleware(api.mux)
	return api
}

func (a *API) setupRoutes() {
	dash := dashboard.NewDashboard(a.registry, a.repo)
	a.mux.HandleFunc("POST /api/mis/sessions", dash.CreateSession)
	a.mux.HandleFunc("GET /api/mis/sessions/{id}", dash.GetSession)
	a.mux.HandleFunc("DELETE /api/mis/sessions/{id}", dash.DeleteSession)
	a.mux.HandleFunc("PUT /api/mis/sessions/{id}/filter", dash.SetFilter)
	a.mux.HandleFunc("POST /api/mis/sessions/{id}/more", dash.LoadMore)
	a.mux.HandleFunc("GET /api/staff/metrics", dash.StaffMetrics)

	a.mux.HandleFunc("GET /api/tasks/{category}", a.listTasks)
	a.mux.HandleFunc("POST /api/tasks/{category}/{id}/complete", a.completeTask)

	a.mux.HandleFunc("GET /api/holidays", a.listHolidays)
	a.mux.HandleFunc("POST /api/holidays", a.addHoliday)
	a.mux.HandleFunc("DELETE /api/holidays/{id}", a.deleteHoliday)

	a.mux.Handle("GET /metrics", promhttp.Handler())
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("failed to close request body: %v", err)
		}
	}()

	return body, err
}

func positiveInt(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func (a *API) listTasks(w http.ResponseWriter, r *http.Request) {
	category, err := task.ParseCategory(r.PathValue("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	q := r.URL.Query()
	page, ok := positiveInt(q.Get("page"), 1)
	if !ok {
		httputil.WriteJSONError(w, "Invalid page", http.StatusBadRequest)
		return
	}
	pageSize, ok := positiveInt(q.Get("page_size"), a.pageSize)
	if !ok || pageSize > maxTaskPageSize {
		httputil.WriteJSONError(w, "Invalid page_size", http.StatusBadRequest)
		return
	}

	staffFilter := q.Get("staff")
	tasks, err := a.repo.ListTasks(r.Context(), category, staffFilter, page, pageSize)
	if err != nil {
		log.Printf("failed to list %s tasks: %v", category, err)
		httputil.WriteError(w, err)
		return
	}

	filter := task.Filter{
		Staff:     staffFilter,
		Status:    task.Status(strings.ToLower(q.Get("status"))),
		Frequency: q.Get("frequency"),
		Search:    q.Get("q"),
	}
	visible := filter.Apply(tasks)
	if visible == nil {
		visible = []task.Task{}
	}

	httputil.WriteJSON(w, http.StatusOK, TaskPage{
		Category: category,
		Page:     page,
		PageSize: pageSize,
		HasMore:  len(tasks) == pageSize,
		Tasks:    visible,
	})
}

func (a *API) completeTask(w http.ResponseWriter, r *http.Request) {
	category, err := task.ParseCategory(r.PathValue("category"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httputil.WriteJSONError(w, "Invalid task ID", http.StatusBadRequest)
		return
	}

	body, err := readBody(r)
	if err != nil {
		httputil.WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req CompleteTaskRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	if err := a.repo.CompleteTask(r.Context(), category, id, strings.TrimSpace(req.Remarks)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	metrics.RecordTaskCompleted(string(category))
	w.WriteHeader(http.StatusNoContent)
}

// monthBounds returns the first and last day of the month containing t.
func monthBounds(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, first.AddDate(0, 1, -1)
}

func (a *API) listHolidays(w http.ResponseWriter, r *http.Request) {
	from, to := monthBounds(time.Now())

	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		d, err := calendar.ParseDay(raw)
		if err != nil {
			httputil.WriteJSONError(w, "Invalid from date", http.StatusBadRequest)
			return
		}
		from = d
	}
	if raw := q.Get("to"); raw != "" {
		d, err := calendar.ParseDay(raw)
		if err != nil {
			httputil.WriteJSONError(w, "Invalid to date", http.StatusBadRequest)
			return
		}
		to = d
	}
	if to.Before(from) {
		httputil.WriteJSONError(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	holidays, err := a.repo.ListHolidays(r.Context(), from, to)
	if err != nil {
		log.Printf("failed to list holidays: %v", err)
		httputil.WriteError(w, err)
		return
	}
	if holidays == nil {
		holidays = []calendar.Holiday{}
	}

	httputil.WriteJSON(w, http.StatusOK, HolidayRange{
		From:        from.Format(time.DateOnly),
		To:          to.Format(time.DateOnly),
		WorkingDays: calendar.WorkingDays(from, to, holidays),
		Holidays:    holidays,
	})
}

func (a *API) addHoliday(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		httputil.WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	var req HolidayRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	day, err := calendar.ParseDay(req.Date)
	if err != nil {
		httputil.WriteJSONError(w, "Date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	h := &calendar.Holiday{Date: day, Description: strings.TrimSpace(req.Description)}
	if err := a.repo.AddHoliday(r.Context(), h); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, h)
}

func (a *API) deleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		httputil.WriteJSONError(w, "Invalid holiday ID", http.StatusBadRequest)
		return
	}

	if err := a.repo.DeleteHoliday(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Package dashboard implements the MIS report endpoints: per-viewer report
// sessions that page through merged staff metrics.
package dashboard

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/httputil"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/mis"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/session"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/staff"
	"github.com/Divine-Empire/checklist-delegation-supabase-sub001/internal/task"
)

const maxPageSize = 100

type Dashboard struct {
	registry *session.Registry
	src      mis.Source
}

type CreateSessionRequest struct {
	Viewer staff.Viewer `json:"viewer"`
	Filter string       `json:"filter"`
}

type FilterRequest struct {
	Filter string `json:"filter"`
}

type SessionResponse struct {
	ID string `json:"id"`
	mis.View
}

type StaffPage struct {
	Filter   string         `json:"filter"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	HasMore  bool           `json:"has_more"`
	Records  []staff.Record `json:"records"`
}

func NewDashboard(reg *session.Registry, src mis.Source) *Dashboard {
	return &Dashboard{registry: reg, src: src}
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("failed to close request body: %v", err)
		}
	}()

	if len(body) == 0 {
		return nil
	}

	return json.Unmarshal(body, v)
}

func normalizeFilter(filter string) string {
	if task.IsAllStaff(filter) {
		return task.AllStaff
	}
	return strings.TrimSpace(filter)
}

func respond(w http.ResponseWriter, status int, sess *session.Session, query string) {
	httputil.WriteJSON(w, status, SessionResponse{
		ID:   sess.ID,
		View: mis.NewView(sess.State, sess.Available, query),
	})
}

func (d *Dashboard) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Viewer.Name) == "" {
		httputil.WriteJSONError(w, "Viewer name is required", http.StatusBadRequest)
		return
	}

	sess, err := d.registry.Create(r.Context(), req.Viewer, normalizeFilter(req.Filter))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	respond(w, http.StatusCreated, sess, "")
}

func (d *Dashboard) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := d.registry.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	respond(w, http.StatusOK, sess, r.URL.Query().Get("q"))
}

func (d *Dashboard) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	sess, err := d.registry.SetFilter(r.Context(), r.PathValue("id"), normalizeFilter(req.Filter))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	respond(w, http.StatusOK, sess, "")
}

func (d *Dashboard) LoadMore(w http.ResponseWriter, r *http.Request) {
	sess, _, err := d.registry.LoadMore(r.Context(), r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	respond(w, http.StatusOK, sess, r.URL.Query().Get("q"))
}

func (d *Dashboard) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := d.registry.Delete(r.Context(), r.PathValue("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StaffMetrics serves one merged page without keeping any session state.
func (d *Dashboard) StaffMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		httputil.WriteJSONError(w, "Invalid page", http.StatusBadRequest)
		return
	}

	pageSize, err := intParam(q.Get("page_size"), mis.DefaultPageSize)
	if err != nil || pageSize < 1 || pageSize > maxPageSize {
		httputil.WriteJSONError(w, "Invalid page_size", http.StatusBadRequest)
		return
	}

	filter := normalizeFilter(q.Get("filter"))
	records, err := mis.LoadPage(r.Context(), d.src, filter, page, pageSize)
	if err != nil {
		log.Printf("failed to load staff metrics page %d: %v", page, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StaffPage{
		Filter:   filter,
		Page:     page,
		PageSize: pageSize,
		HasMore:  len(records) == pageSize,
		Records:  records,
	})
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

package handlers

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mjajones/notifiq-app/internal/models"
	"github.com/mjajones/notifiq-app/internal/repository"
	"github.com/mjajones/notifiq-app/internal/service"
	"github.com/mjajones/notifiq-app/internal/utils"
)

const maxUploadBytes = 32 << 20

type IncidentHTTP struct {
	svc      *service.IncidentService
	mediaDir string
	log      zerolog.Logger
}

func NewIncidentHTTP(svc *service.IncidentService, mediaDir string, log zerolog.Logger) *IncidentHTTP {
	return &IncidentHTTP{svc: svc, mediaDir: mediaDir, log: log}
}

// GET /api/incidents/?requester_email=&agent=&status__name=
// Incident lists are wrapped in a "results" container; the frontend depends
// on it.
func (h *IncidentHTTP) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qv := r.URL.Query()
		f := repository.IncidentFilter{
			RequesterEmail: strings.TrimSpace(qv.Get("requester_email")),
			AgentID:        strings.TrimSpace(qv.Get("agent")),
			StatusName:     strings.TrimSpace(qv.Get("status__name")),
			Limit:          utils.QueryInt(qv, "limit", 100),
			Offset:         utils.QueryInt(qv, "offset", 0),
		}
		items, err := h.svc.List(r.Context(), utils.GetClaims(r.Context()), f)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if items == nil {
			items = []models.Incident{}
		}
		utils.JSON(w, http.StatusOK, map[string]any{"results": items})
	}
}

// GET /api/incidents/{id}/
func (h *IncidentHTTP) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		inc, err := h.svc.Get(r.Context(), utils.GetClaims(r.Context()), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if inc == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusOK, inc)
	}
}

// POST /api/incidents/
// Accepts JSON or multipart form (the latter for attachments alongside
// fields).
func (h *IncidentHTTP) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := utils.GetClaims(r.Context())

		var in service.IncidentCreate
		multipart := isMultipart(r)
		if multipart {
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				utils.Error(w, http.StatusBadRequest, "invalid form")
				return
			}
			createFromForm(r, &in)
		} else {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				utils.Error(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		inc, err := h.svc.Create(r.Context(), caller, &in)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		if multipart {
			if err := h.storeUploads(r, caller, inc.ID); err != nil {
				h.log.Error().Err(err).Int64("incident", inc.ID).Msg("attachment store failed")
			}
			// reload so the response carries the attachments
			if fresh, err := h.svc.Get(r.Context(), caller, inc.ID); err == nil && fresh != nil {
				inc = fresh
			}
		}
		utils.JSON(w, http.StatusCreated, inc)
	}
}

// PATCH /api/incidents/{id}/
func (h *IncidentHTTP) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := utils.GetClaims(r.Context())
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}

		var p service.IncidentPatch
		multipart := isMultipart(r)
		if multipart {
			if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
				utils.Error(w, http.StatusBadRequest, "invalid form")
				return
			}
			if err := patchFromForm(r, &p); err != nil {
				utils.Error(w, http.StatusBadRequest, err.Error())
				return
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				utils.Error(w, http.StatusBadRequest, "invalid json")
				return
			}
		}

		inc, err := h.svc.Update(r.Context(), caller, id, &p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if inc == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}

		if multipart {
			if err := h.storeUploads(r, caller, inc.ID); err != nil {
				h.log.Error().Err(err).Int64("incident", inc.ID).Msg("attachment store failed")
			}
			if fresh, err := h.svc.Get(r.Context(), caller, inc.ID); err == nil && fresh != nil {
				inc = fresh
			}
		}
		utils.JSON(w, http.StatusOK, inc)
	}
}

// DELETE /api/incidents/{id}/
func (h *IncidentHTTP) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		deleted, err := h.svc.Delete(r.Context(), utils.GetClaims(r.Context()), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !deleted {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// POST /api/incidents/{id}/duplicate/
func (h *IncidentHTTP) Duplicate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.QueryInt64(chi.URLParam(r, "id"))
		if !ok {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		dup, err := h.svc.Duplicate(r.Context(), utils.GetClaims(r.Context()), id)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		if dup == nil {
			utils.Error(w, http.StatusNotFound, "not found")
			return
		}
		utils.JSON(w, http.StatusCreated, dup)
	}
}

// GET /api/incidents/test_serialization/
func (h *IncidentHTTP) TestSerialization() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.svc.CheckSerialization(r.Context()); err != nil {
			utils.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		utils.JSON(w, http.StatusOK, map[string]string{"status": "All tickets are OK"})
	}
}

// storeUploads writes every file in the multipart form under the media dir
// and records an attachment row per file.
func (h *IncidentHTTP) storeUploads(r *http.Request, caller *utils.Claims, incidentID int64) error {
	if r.MultipartForm == nil {
		return nil
	}
	dir := filepath.Join(h.mediaDir, "attachments")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			src, err := fh.Open()
			if err != nil {
				return err
			}
			name := uuid.NewString() + "_" + filepath.Base(fh.Filename)
			path := filepath.Join(dir, name)
			dst, err := os.Create(path)
			if err != nil {
				src.Close()
				return err
			}
			_, err = io.Copy(dst, src)
			src.Close()
			dst.Close()
			if err != nil {
				os.Remove(path)
				return err
			}
			if err := h.svc.Attach(r.Context(), caller, incidentID, "/media/attachments/"+name); err != nil {
				// no attachment row, no file on disk
				os.Remove(path)
				return err
			}
		}
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && ct == "multipart/form-data"
}

func createFromForm(r *http.Request, in *service.IncidentCreate) {
	get := func(k string) string { return strings.TrimSpace(r.FormValue(k)) }
	in.Title = get("title")
	in.Description = r.FormValue("description")
	in.Priority = get("priority")
	in.RequesterName = get("requester_name")
	in.Source = get("source")
	in.Urgency = get("urgency")
	in.Impact = get("impact")
	in.Group = get("group")
	in.Department = get("department")
	in.Category = get("category")
	in.Subcategory = get("subcategory")
	if v := get("tags"); v != "" {
		_ = json.Unmarshal([]byte(v), &in.Tags)
	}
	if v := get("agent_id"); v != "" {
		in.AgentID = &v
	}
	if v := get("due_date"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			in.DueDate = &t
		}
	}
}

func patchFromForm(r *http.Request, p *service.IncidentPatch) error {
	has := func(k string) (string, bool) {
		vs, ok := r.MultipartForm.Value[k]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}
	setStr := func(k string, dst **string) {
		if v, ok := has(k); ok {
			*dst = &v
		}
	}
	setStr("title", &p.Title)
	setStr("description", &p.Description)
	setStr("priority", &p.Priority)
	setStr("requester_name", &p.RequesterName)
	setStr("source", &p.Source)
	setStr("urgency", &p.Urgency)
	setStr("impact", &p.Impact)
	setStr("group", &p.Group)
	setStr("department", &p.Department)
	setStr("category", &p.Category)
	setStr("subcategory", &p.Subcategory)
	setStr("internal_note", &p.InternalNote)

	if v, ok := has("tags"); ok {
		var tags []string
		if err := json.Unmarshal([]byte(v), &tags); err != nil {
			return err
		}
		p.Tags = &tags
	}
	if v, ok := has("status_id"); ok {
		if v == "" {
			p.StatusID = service.Null[int64]()
		} else {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return err
			}
			p.StatusID = service.Some(n)
		}
	}
	if v, ok := has("agent_id"); ok {
		if v == "" {
			p.AgentID = service.Null[string]()
		} else {
			p.AgentID = service.Some(v)
		}
	}
	setTime := func(k string, dst *service.Optional[time.Time]) error {
		v, ok := has(k)
		if !ok {
			return nil
		}
		if v == "" {
			*dst = service.Null[time.Time]()
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return err
		}
		*dst = service.Some(t)
		return nil
	}
	if err := setTime("due_date", &p.DueDate); err != nil {
		return err
	}
	if err := setTime("first_response_at", &p.FirstResponseAt); err != nil {
		return err
	}
	return setTime("resolved_at", &p.ResolvedAt)
}

package report

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minewatch/minewatch-api/internal/middleware"
	"github.com/minewatch/minewatch-api/internal/pkg/errorhandler"
	"github.com/minewatch/minewatch-api/internal/pkg/response"
	"github.com/minewatch/minewatch-api/internal/pkg/validator"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to disk
const multipartMemory = 16 << 20

// Handler handles report HTTP requests
type Handler struct {
	service       *Service
	hub           *Hub
	maxPhotoBytes int64
}

// NewHandler creates report handler; hub may be nil to disable the live feed
func NewHandler(service *Service, hub *Hub, maxPhotoBytes int64) *Handler {
	return &Handler{service: service, hub: hub, maxPhotoBytes: maxPhotoBytes}
}

// List handles GET /reports
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := ListQuery{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("q"),
	}
	if errs := validator.Validate(&q); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	reports, err := h.service.List(r.Context(), Filter{Status: q.Status, Search: q.Search})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := q.Status
	if status == "" {
		status = StatusAll
	}
	response.WithMeta(w, reports, response.Meta{
		Total:  len(reports),
		Status: status,
		Query:  q.Search,
	})
}

// Map handles GET /reports/map
func (h *Handler) Map(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, summary)
}

// GetByID handles GET /reports/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.NotFound(w, "Report not found")
		return
	}

	rep, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// Create handles POST /reports with a JSON or multipart body
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.AuthRequired(w, ErrAuthRequired.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(MaxImages)*h.maxPhotoBytes+(1<<20))

	var in CreateInput
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		parsed, err := h.parseMultipart(r)
		if err != nil {
			h.writeBodyError(w, err)
			return
		}
		in = parsed
	} else {
		var req CreateReportRequest
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			h.writeBodyError(w, err)
			return
		}
		in = req.ToInput()
	}

	rep, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, rep)
}

// parseMultipart reads the report form. Fields: title, description, latitude, longitude,
// location_name, accuracy, images (repeatable URL) and photos (repeatable file).
func (h *Handler) parseMultipart(r *http.Request) (CreateInput, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return CreateInput{}, err
	}
	defer r.MultipartForm.RemoveAll()

	form := r.MultipartForm
	in := CreateInput{
		Title:       first(form.Value["title"]),
		Description: first(form.Value["description"]),
		ImageURLs:   form.Value["images"],
	}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(first(form.Value["latitude"])), 64)
	lng, lngErr := strconv.ParseFloat(strings.TrimSpace(first(form.Value["longitude"])), 64)
	if latErr == nil && lngErr == nil {
		in.Location = &Location{Latitude: lat, Longitude: lng, Name: first(form.Value["location_name"])}
	}
	if acc, err := strconv.ParseFloat(strings.TrimSpace(first(form.Value["accuracy"])), 64); err == nil {
		in.Accuracy = &acc
	}

	for _, fh := range form.File["photos"] {
		f, err := fh.Open()
		if err != nil {
			return CreateInput{}, err
		}
		// One byte over the limit is enough for validation to reject it
		data, err := io.ReadAll(io.LimitReader(f, h.maxPhotoBytes+1))
		f.Close()
		if err != nil {
			return CreateInput{}, err
		}
		in.Photos = append(in.Photos, PhotoFile{Filename: fh.Filename, Data: data})
	}

	return in, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// UpdateStatus handles PATCH /reports/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.NotFound(w, "Report not found")
		return
	}

	var req UpdateStatusRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	rep, err := h.service.UpdateStatus(r.Context(), id, Status(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// Locate handles POST /locate
func (h *Handler) Locate(w http.ResponseWriter, r *http.Request) {
	var req LocateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		errorhandler.HandleValidationError(r.Context(), w, errs)
		return
	}

	response.OK(w, LocateResponse{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Name:      LocationLabel(*req.Latitude, *req.Longitude, req.Accuracy),
	})
}

// Feed handles GET /reports/feed
func (h *Handler) Feed(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		response.NotFound(w, "Live feed is not enabled")
		return
	}
	h.hub.ServeWS(w, r)
}

func (h *Handler) writeBodyError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.RequestTooLarge(w, "Request body is too large")
		return
	}
	response.BadRequest(w, "Invalid request body")
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	var berr *BackendError

	switch {
	case errors.As(err, &verr):
		errorhandler.HandleValidationError(r.Context(), w, verr.Fields)
	case errors.Is(err, ErrAuthRequired):
		response.AuthRequired(w, err.Error())
	case errors.Is(err, ErrReportNotFound):
		response.NotFound(w, "Report not found")
	case errors.As(err, &berr):
		errorhandler.HandleBackendError(r.Context(), w, berr.Message, berr.Err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", err)
	}
}

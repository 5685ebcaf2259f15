package project

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/celestialsphere/celestialsphere/backend-go/internal/document"
	"github.com/celestialsphere/celestialsphere/backend-go/internal/typeid"
)

var errInvalidID = errors.New("invalid project id")

type Handler struct {
	service  *Service
	maxBytes int64
}

func NewHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{service: service, maxBytes: maxBytes}
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	project, err := h.service.Create(r.Context(), req.Name)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDFrom(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	project, err := h.service.Get(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("list projects failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, projects)
}

// SaveSnapshot stores the request body as the project's next snapshot.
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDFrom(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "document too large"})
		return
	}

	snap, err := h.service.SaveSnapshot(r.Context(), projectID, data)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        snap.ID,
		"version":   snap.Version,
		"createdAt": snap.CreatedAt,
	})
}

func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	projectID, err := projectIDFrom(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	snap, err := h.service.LatestSnapshot(r.Context(), projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(snap.Document)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalidName), errors.Is(err, errInvalidID):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, document.ErrInvalidDocument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func projectIDFrom(r *http.Request) (string, error) {
	id := mux.Vars(r)["projectId"]
	if err := typeid.Validate(id, typeid.PrefixProject); err != nil {
		return "", errInvalidID
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

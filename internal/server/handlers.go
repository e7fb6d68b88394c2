package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/shahar-caura/deskpilot/internal/intent"
	"github.com/shahar-caura/deskpilot/internal/pipeline"
	"github.com/shahar-caura/deskpilot/internal/plan"
	"github.com/shahar-caura/deskpilot/internal/slots"
)

// Pipeline runs and plans commands.
type Pipeline interface {
	Run(ctx context.Context, text string) (*pipeline.Invocation, error)
	Plan(ctx context.Context, text string) (*pipeline.Invocation, error)
}

// Templates exposes the loaded plan templates.
type Templates interface {
	Keys() []string
	Lookup(key string) (plan.Template, bool)
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int    `json:"uptime_seconds"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ClassificationResponse is the body of POST /api/classify.
type ClassificationResponse struct {
	Input      string          `json:"input"`
	Category   intent.Category `json:"category"`
	Confidence float64         `json:"confidence"`
	Slots      slots.Map       `json:"slots"`
}

// TemplateList is the body of GET /api/templates without a key.
type TemplateList struct {
	Keys []string `json:"keys"`
}

// TemplateResponse is the body of GET /api/templates?key=...
type TemplateResponse struct {
	Key      string        `json:"key"`
	Template plan.Template `json:"template"`
	Steps    int           `json:"steps"`
}

type commandRequest struct {
	Text string `json:"text" validate:"required,max=500"`
}

// Handlers serves the JSON API.
type Handlers struct {
	Pipeline  Pipeline
	Templates Templates
	Version   string
	StartTime time.Time
	Logger    *slog.Logger

	validate *validator.Validate
}

// NewHandlers wires the API handlers.
func NewHandlers(p Pipeline, t Templates, version string, startTime time.Time, logger *slog.Logger) *Handlers {
	return &Handlers{
		Pipeline:  p,
		Templates: t,
		Version:   version,
		StartTime: startTime,
		Logger:    logger,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register adds the API routes to mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.getHealth)
	mux.HandleFunc("POST /api/commands", h.runCommand)
	mux.HandleFunc("POST /api/plan", h.planCommand)
	mux.HandleFunc("POST /api/classify", h.classifyCommand)
	mux.HandleFunc("GET /api/templates", h.listTemplates)
}

func (h *Handlers) getHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Version:       h.Version,
		UptimeSeconds: int(time.Since(h.StartTime).Seconds()),
	})
}

func (h *Handlers) runCommand(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	inv, err := h.Pipeline.Run(r.Context(), req.Text)
	switch {
	case errors.Is(err, pipeline.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, intent.ErrClassificationFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case err != nil:
		h.Logger.Error("running command", "text", req.Text, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, inv)
	}
}

func (h *Handlers) planCommand(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	inv, ok := h.plan(w, r, req.Text)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handlers) classifyCommand(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	inv, ok := h.plan(w, r, req.Text)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ClassificationResponse{
		Input:      inv.Input,
		Category:   inv.Classification.Category,
		Confidence: inv.Classification.Confidence,
		Slots:      inv.Slots,
	})
}

func (h *Handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	var key string
	if err := runtime.BindQueryParameter("form", true, false, "key", r.URL.Query(), &key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if key == "" {
		writeJSON(w, http.StatusOK, TemplateList{Keys: h.Templates.Keys()})
		return
	}
	t, ok := h.Templates.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "no template for "+key)
		return
	}
	writeJSON(w, http.StatusOK, TemplateResponse{Key: key, Template: t, Steps: t.Len()})
}

func (h *Handlers) plan(w http.ResponseWriter, r *http.Request, text string) (*pipeline.Invocation, bool) {
	inv, err := h.Pipeline.Plan(r.Context(), text)
	if errors.Is(err, intent.ErrClassificationFailed) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	if err != nil {
		h.Logger.Error("planning command", "text", text, "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return inv, true
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request) (commandRequest, bool) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Code: status, Message: msg})
}

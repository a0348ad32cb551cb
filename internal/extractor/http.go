package extractor

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HTTPHandler receives bucket notifications over a webhook, the way MinIO
// delivers them, and runs them through the Processor.
type HTTPHandler struct {
	processor    *Processor
	logger       *zap.Logger
	maxBodyBytes int64
	metrics      http.Handler
	router       chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes. A nil
// metricsHandler leaves /metrics unrouted.
func NewHTTPHandler(processor *Processor, logger *zap.Logger, maxBodyBytes int64, metricsHandler http.Handler) *HTTPHandler {
	h := &HTTPHandler{
		processor:    processor,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		metrics:      metricsHandler,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", h.handleHealth)
	r.Post("/v1/events", h.handleEvents)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HTTPHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	var evt events.S3Event
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := dec.Decode(&evt); err != nil {
		h.logger.Warn("invalid notification payload",
			zap.String("request_id", middleware.GetReqID(r.Context())), zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid notification payload")
		return
	}

	res := h.processor.Process(r.Context(), EventsFromS3(evt))
	writeJSON(w, res.StatusCode, res)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}

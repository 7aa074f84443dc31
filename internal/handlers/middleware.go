package handlers

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/utils"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack não suportado")
	}
	r.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// RequestLogger tags each request with an id and stores a logger carrying it
// in the request context.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx := utils.WithLogger(r.Context(), "request_id", requestID, "method", r.Method, "path", r.URL.Path)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(ctx))

		utils.RequestLogger(ctx).Debugw("requisição concluída", "status", rec.status, "duration", time.Since(start))
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var validation *models.ValidationError
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrSuggestionRejected):
		return http.StatusConflict
	case errors.Is(err, services.ErrStorageNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := statusFor(err)
	utils.RequestLogger(r.Context()).Errorw(op, "status", code, "error", err)
	models.RespondWithJSON(w, code, models.NewErrorResponse(err.Error()))
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /health [get]
func Health(w http.ResponseWriter, r *http.Request) {
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("ok", nil))
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/utils"
)

// Quote endpoints answer with {"success": bool, ...} instead of the
// APIResponse envelope; the admin page scripts read that shape.
type OrcamentosHandler struct {
	quotes *services.QuoteService
	pages  *Pages
}

func NewOrcamentosHandler(quotes *services.QuoteService, pages *Pages) *OrcamentosHandler {
	return &OrcamentosHandler{quotes: quotes, pages: pages}
}

type quoteListResponse struct {
	Success    bool                    `json:"success"`
	Orcamentos []services.QuoteView    `json:"orcamentos"`
	Stats      services.QuoteListStats `json:"stats"`
}

type quoteStatsResponse struct {
	Success bool                   `json:"success"`
	Stats   *services.QuoteSummary `json:"stats"`
}

type quoteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func quoteFailure(w http.ResponseWriter, r *http.Request, code int, message string, err error) {
	if err != nil {
		utils.RequestLogger(r.Context()).Errorw(message, "error", err)
	}
	models.WriteJSON(w, code, quoteResult{Success: false, Error: message})
}

// @Summary Quotes page
// @Tags orcamentos
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /admin/orcamentos [get]
func (h *OrcamentosHandler) Page(w http.ResponseWriter, r *http.Request) {
	list, err := h.quotes.List(r.Context(), services.QuoteDefaultDays, models.QuoteStatusAll)
	if err != nil {
		list = &services.QuoteList{}
	}
	h.pages.Render(w, r, "orcamentos.html", "Orçamentos", list, err)
}

// @Summary List quotes
// @Description Quotes created in the last dias days, newest first, with stats over the returned list
// @Tags orcamentos
// @Produce json
// @Param dias query int false "Dias" default(30)
// @Param status query string false "todos, pendente, confirmado ou pago" default(todos)
// @Success 200 {object} quoteListResponse
// @Router /admin/orcamentos/api/list [get]
func (h *OrcamentosHandler) List(w http.ResponseWriter, r *http.Request) {
	days := services.QuoteDefaultDays
	if raw := r.URL.Query().Get("dias"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			quoteFailure(w, r, http.StatusBadRequest, "dias inválido", nil)
			return
		}
		days = parsed
	}

	list, err := h.quotes.List(r.Context(), days, r.URL.Query().Get("status"))
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			quoteFailure(w, r, http.StatusBadRequest, validation.Message, nil)
			return
		}
		quoteFailure(w, r, statusFor(err), "Erro ao listar orçamentos", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, quoteListResponse{
		Success:    true,
		Orcamentos: list.Orcamentos,
		Stats:      list.Stats,
	})
}

// @Summary Quote stats
// @Description Counts per status and sums over the full history and the last 30 days
// @Tags orcamentos
// @Produce json
// @Success 200 {object} quoteStatsResponse
// @Router /admin/orcamentos/api/stats [get]
func (h *OrcamentosHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.quotes.Stats(r.Context())
	if err != nil {
		quoteFailure(w, r, statusFor(err), "Erro ao buscar estatísticas", err)
		return
	}
	models.WriteJSON(w, http.StatusOK, quoteStatsResponse{Success: true, Stats: stats})
}

// @Summary Update quote status
// @Tags orcamentos
// @Accept json
// @Produce json
// @Param request body models.QuoteStatusRequest true "ID e novo status"
// @Success 200 {object} quoteResult
// @Failure 400 {object} quoteResult
// @Failure 404 {object} quoteResult
// @Router /admin/orcamentos/api/update-status [post]
func (h *OrcamentosHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.QuoteStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		quoteFailure(w, r, http.StatusBadRequest, "Erro ao decodificar requisição: "+err.Error(), nil)
		return
	}

	err := h.quotes.UpdateStatus(r.Context(), req)
	var validation *models.ValidationError
	switch {
	case err == nil:
		models.WriteJSON(w, http.StatusOK, quoteResult{Success: true, Message: "Status atualizado para " + req.Status})
	case errors.As(err, &validation):
		quoteFailure(w, r, http.StatusBadRequest, validation.Message, nil)
	case errors.Is(err, models.ErrNotFound):
		quoteFailure(w, r, http.StatusNotFound, "Orçamento não encontrado", nil)
	default:
		quoteFailure(w, r, statusFor(err), "Erro ao atualizar status", err)
	}
}

package handlers

import (
	"net/http"
	"strconv"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
)

const dashboardLimit = 200

type ConversasHandler struct {
	attendance *services.AttendanceService
	pages      *Pages
}

func NewConversasHandler(attendance *services.AttendanceService, pages *Pages) *ConversasHandler {
	return &ConversasHandler{attendance: attendance, pages: pages}
}

type dashboardView struct {
	Conversations []*models.Conversation
	Stats         *models.ConversationStats
}

// @Summary Conversations dashboard
// @Tags conversas
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /admin/conversas [get]
func (h *ConversasHandler) Page(w http.ResponseWriter, r *http.Request) {
	view := &dashboardView{}
	conversations, err := h.attendance.Conversations(r.Context(), dashboardLimit)
	if err == nil {
		view.Conversations = conversations
		view.Stats, err = h.attendance.Stats(r.Context(), 7)
	}
	h.pages.Render(w, r, "conversas.html", "Conversas", view, err)
}

// @Summary Conversation stats
// @Tags conversas
// @Produce json
// @Param periodo query int false "Dias" default(7)
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /admin/conversas/api/stats [get]
func (h *ConversasHandler) Stats(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("periodo"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse("periodo inválido"))
			return
		}
		days = parsed
	}

	stats, err := h.attendance.Stats(r.Context(), days)
	if err != nil {
		respondError(w, r, "erro ao buscar estatísticas", err)
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Estatísticas", map[string]interface{}{
		"periodo": days,
		"stats":   stats,
	}))
}

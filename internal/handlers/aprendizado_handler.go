package handlers

import (
	"errors"
	"net/http"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/utils"

	"github.com/gorilla/mux"
)

const aprendizadoPath = "/admin/aprendizado"

type AprendizadoHandler struct {
	knowledge *services.KnowledgeService
	pages     *Pages
}

func NewAprendizadoHandler(knowledge *services.KnowledgeService, pages *Pages) *AprendizadoHandler {
	return &AprendizadoHandler{knowledge: knowledge, pages: pages}
}

// @Summary Knowledge approval queue
// @Tags aprendizado
// @Produce html
// @Param status query string false "pending, approved ou rejected"
// @Success 200 {string} string "HTML"
// @Router /admin/aprendizado [get]
func (h *AprendizadoHandler) Page(w http.ResponseWriter, r *http.Request) {
	list, err := h.knowledge.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		list = &services.SuggestionList{Status: models.SuggestionPending}
	}
	h.pages.Render(w, r, "aprendizado.html", "Aprendizado", list, err)
}

// @Summary List suggestions
// @Tags aprendizado
// @Produce json
// @Param status query string false "pending, approved ou rejected"
// @Success 200 {object} models.APIResponse
// @Router /admin/aprendizado/api/list [get]
func (h *AprendizadoHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.knowledge.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, r, "erro ao listar sugestões", err)
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Sugestões", list))
}

// backToList redirects to the queue. Unknown ids land here as well.
func backToList(w http.ResponseWriter, r *http.Request, status string) {
	http.Redirect(w, r, aprendizadoPath+"?status="+status, http.StatusSeeOther)
}

// @Summary Approve suggestion
// @Tags aprendizado
// @Param id path string true "ID da sugestão"
// @Success 303
// @Router /admin/aprendizado/approve/{id} [post]
func (h *AprendizadoHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.knowledge.Approve(r.Context(), id, models.SentByAdminPanel)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		utils.RequestLogger(r.Context()).Infow("sugestão não encontrada", "id", id)
	case errors.Is(err, models.ErrSuggestionRejected):
		utils.RequestLogger(r.Context()).Infow("sugestão rejeitada não pode ser aprovada", "id", id)
	default:
		respondError(w, r, "erro ao aprovar sugestão", err)
		return
	}
	backToList(w, r, models.SuggestionPending)
}

// @Summary Reject suggestion
// @Tags aprendizado
// @Param id path string true "ID da sugestão"
// @Success 303
// @Router /admin/aprendizado/reject/{id} [post]
func (h *AprendizadoHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := h.knowledge.Reject(r.Context(), id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		respondError(w, r, "erro ao rejeitar sugestão", err)
		return
	}
	backToList(w, r, models.SuggestionPending)
}

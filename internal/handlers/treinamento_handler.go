package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
)

const treinamentoPath = "/admin/treinamento"

type TreinamentoHandler struct {
	training *services.TrainingService
	pages    *Pages
}

func NewTreinamentoHandler(training *services.TrainingService, pages *Pages) *TreinamentoHandler {
	return &TreinamentoHandler{training: training, pages: pages}
}

type treinamentoView struct {
	Profile *models.BotProfile
	Saved   bool
}

// @Summary Bot training page
// @Tags treinamento
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /admin/treinamento [get]
func (h *TreinamentoHandler) Page(w http.ResponseWriter, r *http.Request) {
	profile, err := h.training.Profile(r.Context())
	view := &treinamentoView{Profile: profile, Saved: r.URL.Query().Get("success") == "true"}
	if err != nil {
		view.Profile = &models.BotProfile{}
	}
	h.pages.Render(w, r, "treinamento.html", "Treinamento da Mia", view, err)
}

// @Summary Save bot training
// @Description Replaces the system prompt and the active flag, then redirects to the page
// @Tags treinamento
// @Accept x-www-form-urlencoded
// @Param system_prompt formData string true "Prompt (mínimo 10 caracteres)"
// @Param is_active formData bool false "Bot ativo"
// @Success 303 {string} string "Redirect"
// @Failure 400 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Router /admin/treinamento/salvar [post]
func (h *TreinamentoHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse("Formulário inválido: "+err.Error()))
		return
	}
	training := models.BotTraining{
		SystemPrompt: r.PostFormValue("system_prompt"),
		IsActive:     formBool(r.PostFormValue("is_active")),
	}

	if err := h.training.Save(r.Context(), training); err != nil {
		var validation *models.ValidationError
		switch {
		case errors.As(err, &validation):
			models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse(validation.Message))
		case errors.Is(err, models.ErrNotFound):
			models.RespondWithJSON(w, http.StatusNotFound, models.NewErrorResponse("Bot não encontrado"))
		default:
			respondError(w, r, "erro ao salvar treinamento", err)
		}
		return
	}
	http.Redirect(w, r, treinamentoPath+"?success=true", http.StatusSeeOther)
}

// @Summary Bot status
// @Description Global IA switch and the number of conversations in human attendance
// @Tags treinamento
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /admin/api/bot/status [get]
func (h *TreinamentoHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.training.Status(r.Context())
	if err != nil {
		respondError(w, r, "erro ao consultar status do bot", err)
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Status do bot", status))
}

// @Summary Toggle the bot
// @Description Turns the IA on or off for every client in IA mode
// @Tags treinamento
// @Produce json
// @Param enabled query bool true "Ligar ou desligar"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /admin/api/bot/toggle [post]
func (h *TreinamentoHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.FormValue("enabled"))
	if err != nil {
		models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse("Parâmetro enabled inválido"))
		return
	}
	if err := h.training.Toggle(r.Context(), enabled); err != nil {
		respondError(w, r, "erro ao alterar status do bot", err)
		return
	}
	message := "Bot DESATIVADO com sucesso!"
	if enabled {
		message = "Bot ATIVADO com sucesso!"
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse(message, map[string]bool{"enabled": enabled}))
}

// formBool reads an HTML checkbox: any of on, true or 1 is checked.
func formBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1":
		return true
	}
	return false
}

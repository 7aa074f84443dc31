package handlers

import (
	"errors"
	"net/http"
	"strings"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/utils"

	"github.com/gorilla/mux"
)

type AtendimentoHandler struct {
	attendance *services.AttendanceService
	store      services.ObjectStore
	pages      *Pages
}

// NewAtendimentoHandler builds the human attendance endpoints. store may be
// nil when S3 is not configured.
func NewAtendimentoHandler(attendance *services.AttendanceService, store services.ObjectStore, pages *Pages) *AtendimentoHandler {
	return &AtendimentoHandler{attendance: attendance, store: store, pages: pages}
}

type chatView struct {
	Phone string
	Mode  string
	Turns []*models.Turn
}

type messagesResponse struct {
	Status   string         `json:"status"`
	Messages []*models.Turn `json:"messages"`
}

func phoneParam(r *http.Request) string {
	return strings.TrimSpace(mux.Vars(r)["phone"])
}

// @Summary Awaiting-human page
// @Description Conversations in human mode or carrying transfer metadata, newest transfer first
// @Tags atendimento
// @Produce html
// @Success 200 {string} string "HTML"
// @Router /admin/atendimento [get]
func (h *AtendimentoHandler) Page(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.attendance.AwaitingHuman(r.Context())
	h.pages.Render(w, r, "atendimento.html", "Atendimento humano", conversations, err)
}

// @Summary Chat view
// @Tags atendimento
// @Produce html
// @Param phone path string true "Telefone"
// @Success 200 {string} string "HTML"
// @Router /admin/atendimento/{phone} [get]
func (h *AtendimentoHandler) Chat(w http.ResponseWriter, r *http.Request) {
	phone := phoneParam(r)
	view := &chatView{Phone: phone, Mode: models.ModeIA}

	turns, err := h.attendance.History(r.Context(), phone)
	if err == nil {
		view.Turns = turns
		if len(turns) > 0 {
			view.Mode = turns[len(turns)-1].EffectiveMode()
		}
	}
	h.pages.Render(w, r, "chat.html", "Conversa "+phone, view, err)
}

// @Summary Send admin reply
// @Description Delivers the message through the gateway and records it as a human turn
// @Tags atendimento
// @Accept x-www-form-urlencoded
// @Produce json
// @Param phone formData string true "Telefone"
// @Param message formData string true "Mensagem"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /admin/atendimento/send [post]
func (h *AtendimentoHandler) Send(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse("Formulário inválido: "+err.Error()))
		return
	}
	req := models.AdminReplyRequest{
		Phone:   strings.TrimSpace(r.PostFormValue("phone")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}

	turn, err := h.attendance.SendAdminReply(r.Context(), req)
	if err != nil {
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse(validation.Message))
			return
		}
		utils.RequestLogger(r.Context()).Errorw("erro ao enviar mensagem", "phone", req.Phone, "error", err)
		models.RespondWithJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Erro ao enviar mensagem: "+err.Error()))
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Mensagem enviada", map[string]string{
		"id":    turn.ID.Hex(),
		"phone": turn.Phone,
	}))
}

// @Summary Return conversation to IA
// @Description Flips every turn of the phone to IA mode, then sends the automatic greeting
// @Tags atendimento
// @Produce json
// @Param phone path string true "Telefone"
// @Success 200 {object} models.APIResponse
// @Failure 500 {object} models.APIResponse
// @Router /admin/atendimento/return-to-ia/{phone} [post]
func (h *AtendimentoHandler) ReturnToIA(w http.ResponseWriter, r *http.Request) {
	phone := phoneParam(r)
	result, err := h.attendance.ReturnToIA(r.Context(), phone, models.SentByAdminPanel, true)
	if err != nil {
		respondError(w, r, "erro ao devolver para IA", err)
		return
	}

	data := map[string]interface{}{
		"phone":   phone,
		"updated": result.Updated,
	}
	if result.GreetingErr != nil {
		data["warning"] = "Mensagem automática não enviada: " + result.GreetingErr.Error()
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Conversa devolvida para IA", data))
}

// @Summary Transfer conversation to a human
// @Tags atendimento
// @Accept x-www-form-urlencoded
// @Produce json
// @Param phone path string true "Telefone"
// @Param reason formData string false "Motivo"
// @Success 200 {object} models.APIResponse
// @Router /admin/atendimento/transfer/{phone} [post]
func (h *AtendimentoHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	phone := phoneParam(r)
	reason := strings.TrimSpace(r.FormValue("reason"))
	if reason == "" {
		reason = "Assumido pelo painel"
	}

	changed, err := h.attendance.Transfer(r.Context(), phone, reason, models.SentByAdminPanel)
	if err != nil {
		respondError(w, r, "erro ao transferir conversa", err)
		return
	}
	message := "Conversa transferida para atendimento humano"
	if !changed {
		message = "Conversa já está em atendimento humano"
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse(message, map[string]interface{}{
		"phone":   phone,
		"changed": changed,
	}))
}

// @Summary Conversation history
// @Description Up to 1000 turns in ascending timestamp order
// @Tags atendimento
// @Produce json
// @Param phone path string true "Telefone"
// @Success 200 {object} messagesResponse
// @Failure 500 {object} models.APIResponse
// @Router /admin/atendimento/messages/{phone} [get]
func (h *AtendimentoHandler) Messages(w http.ResponseWriter, r *http.Request) {
	turns, err := h.attendance.History(r.Context(), phoneParam(r))
	if err != nil {
		respondError(w, r, "erro ao buscar mensagens", err)
		return
	}
	if turns == nil {
		turns = []*models.Turn{}
	}
	models.WriteJSON(w, http.StatusOK, messagesResponse{Status: "success", Messages: turns})
}

// @Summary Chat QR code
// @Description PNG QR code of the wa.me link of the client
// @Tags atendimento
// @Produce png
// @Param phone path string true "Telefone"
// @Success 200 {file} file
// @Failure 400 {object} models.APIResponse
// @Router /admin/atendimento/{phone}/qrcode [get]
func (h *AtendimentoHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	png, err := services.ChatQRCode(phoneParam(r))
	if err != nil {
		models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// @Summary Export conversation transcript
// @Description Uploads the conversation as JSON to S3 and returns its URL
// @Tags atendimento
// @Produce json
// @Param phone path string true "Telefone"
// @Success 200 {object} models.APIResponse
// @Failure 404 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /admin/atendimento/export/{phone} [post]
func (h *AtendimentoHandler) Export(w http.ResponseWriter, r *http.Request) {
	url, err := h.attendance.ExportTranscript(r.Context(), h.store, phoneParam(r))
	if err != nil {
		respondError(w, r, "erro ao exportar conversa", err)
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Conversa exportada", map[string]string{"path": url}))
}

// @Summary Attendance mode of a phone
// @Description Current mode (ia or human); unseen phones are in IA mode
// @Tags atendimento
// @Produce json
// @Param phone path string true "Telefone"
// @Success 200 {object} models.APIResponse
// @Failure 503 {object} models.APIResponse
// @Router /admin/atendimento/mode/{phone} [get]
func (h *AtendimentoHandler) Mode(w http.ResponseWriter, r *http.Request) {
	info, err := h.attendance.ModeOf(r.Context(), phoneParam(r))
	if err != nil {
		respondError(w, r, "erro ao consultar modo", err)
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Modo de atendimento", info))
}

type activeResponse struct {
	Total        int                    `json:"total"`
	Atendimentos []*models.Conversation `json:"atendimentos"`
}

// @Summary Active human attendances
// @Description Same list as the awaiting-human page, as JSON
// @Tags atendimento
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /admin/atendimento/api/ativos [get]
func (h *AtendimentoHandler) Active(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.attendance.AwaitingHuman(r.Context())
	if err != nil {
		respondError(w, r, "erro ao listar atendimentos", err)
		return
	}
	if conversations == nil {
		conversations = []*models.Conversation{}
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse("Atendimentos ativos",
		activeResponse{Total: len(conversations), Atendimentos: conversations}))
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
	"mia-admin/internal/utils"
)

type WebhookHandler struct {
	router *services.Router
}

func NewWebhookHandler(router *services.Router) *WebhookHandler {
	return &WebhookHandler{router: router}
}

// @Summary Z-API inbound message
// @Description Routes a received WhatsApp message to the IA or to the human queue
// @Tags webhook
// @Accept json
// @Produce json
// @Param request body models.WebhookPayload true "Payload da Z-API"
// @Success 200 {object} models.APIResponse
// @Failure 400 {object} models.APIResponse
// @Router /webhook/whatsapp [post]
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var payload models.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RequestLogger(r.Context()).Warnw("payload do webhook inválido", "error", err)
		models.RespondWithJSON(w, http.StatusBadRequest, models.NewErrorResponse("Erro ao decodificar requisição: "+err.Error()))
		return
	}

	msg := models.InboundMessage{
		Text:      payload.MessageText(),
		MessageID: payload.MessageID,
		FromMe:    payload.FromMe,
		IsGroup:   payload.IsGroup || strings.HasSuffix(payload.Phone, "@g.us"),
	}
	if payload.Phone != "" {
		phone, err := utils.NormalizePhone(payload.Phone)
		if err != nil {
			models.RespondWithJSON(w, http.StatusOK, models.NewIgnoredResponse(err.Error(), nil))
			return
		}
		msg.Phone = phone
	}

	result, err := h.router.Handle(r.Context(), msg)
	if err != nil {
		respondError(w, r, "erro ao processar webhook", err)
		return
	}
	if result.Ignored {
		models.RespondWithJSON(w, http.StatusOK, models.NewIgnoredResponse(result.Outcome, nil))
		return
	}
	models.RespondWithJSON(w, http.StatusOK, models.NewSuccessResponse(result.Outcome, result))
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups every endpoint set mounted by NewRouter.
type Handlers struct {
	Atendimento *AtendimentoHandler
	Conversas   *ConversasHandler
	Aprendizado *AprendizadoHandler
	Orcamentos  *OrcamentosHandler
	Treinamento *TreinamentoHandler
	Webhook     *WebhookHandler
	WebSocket   *WebSocketHandler
}

func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(RequestLogger)

	router.HandleFunc("/health", Health).Methods("GET")
	router.HandleFunc("/webhook/whatsapp", h.Webhook.Receive).Methods("POST", "OPTIONS")
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	admin := router.PathPrefix("/admin").Subrouter()
	admin.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/admin/conversas", http.StatusFound)
	}).Methods("GET")

	// Rotas de atendimento; as fixas antes de /{phone}
	admin.HandleFunc("/atendimento", h.Atendimento.Page).Methods("GET")
	admin.HandleFunc("/atendimento/ws", h.WebSocket.Serve)
	admin.HandleFunc("/atendimento/send", h.Atendimento.Send).Methods("POST", "OPTIONS")
	admin.HandleFunc("/atendimento/return-to-ia/{phone}", h.Atendimento.ReturnToIA).Methods("POST", "OPTIONS")
	admin.HandleFunc("/atendimento/transfer/{phone}", h.Atendimento.Transfer).Methods("POST", "OPTIONS")
	admin.HandleFunc("/atendimento/messages/{phone}", h.Atendimento.Messages).Methods("GET", "OPTIONS")
	admin.HandleFunc("/atendimento/export/{phone}", h.Atendimento.Export).Methods("POST", "OPTIONS")
	admin.HandleFunc("/atendimento/mode/{phone}", h.Atendimento.Mode).Methods("GET", "OPTIONS")
	admin.HandleFunc("/atendimento/api/ativos", h.Atendimento.Active).Methods("GET", "OPTIONS")
	admin.HandleFunc("/atendimento/{phone}/qrcode", h.Atendimento.QRCode).Methods("GET")
	admin.HandleFunc("/atendimento/{phone}", h.Atendimento.Chat).Methods("GET")

	// Rotas de conversas
	admin.HandleFunc("/conversas", h.Conversas.Page).Methods("GET")
	admin.HandleFunc("/conversas/api/stats", h.Conversas.Stats).Methods("GET", "OPTIONS")

	// Rotas de aprendizado
	admin.HandleFunc("/aprendizado", h.Aprendizado.Page).Methods("GET")
	admin.HandleFunc("/aprendizado/api/list", h.Aprendizado.List).Methods("GET", "OPTIONS")
	admin.HandleFunc("/aprendizado/approve/{id}", h.Aprendizado.Approve).Methods("POST")
	admin.HandleFunc("/aprendizado/reject/{id}", h.Aprendizado.Reject).Methods("POST")

	// Rotas de orçamentos
	admin.HandleFunc("/orcamentos", h.Orcamentos.Page).Methods("GET")
	admin.HandleFunc("/orcamentos/api/list", h.Orcamentos.List).Methods("GET", "OPTIONS")
	admin.HandleFunc("/orcamentos/api/stats", h.Orcamentos.Stats).Methods("GET", "OPTIONS")
	admin.HandleFunc("/orcamentos/api/update-status", h.Orcamentos.UpdateStatus).Methods("POST", "OPTIONS")

	// Rotas de treinamento e status global do bot
	admin.HandleFunc("/treinamento", h.Treinamento.Page).Methods("GET")
	admin.HandleFunc("/treinamento/salvar", h.Treinamento.Save).Methods("POST")
	admin.HandleFunc("/api/bot/status", h.Treinamento.Status).Methods("GET", "OPTIONS")
	admin.HandleFunc("/api/bot/toggle", h.Treinamento.Toggle).Methods("POST", "OPTIONS")

	return router
}

package handlers

import (
	"net/http"

	"mia-admin/internal/utils"
	"mia-admin/internal/wsnotify"
)

type WebSocketHandler struct {
	manager *wsnotify.Manager
}

func NewWebSocketHandler(manager *wsnotify.Manager) *WebSocketHandler {
	return &WebSocketHandler{manager: manager}
}

// @Summary Live turn feed
// @Description Websocket that pushes every persisted turn to the admin pages
// @Tags atendimento
// @Router /admin/atendimento/ws [get]
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := wsnotify.Upgrader().Upgrade(w, r, nil)
	if err != nil {
		utils.LogError("Erro ao abrir websocket: %v", err)
		return
	}
	h.manager.AddClient(conn)
	defer func() {
		h.manager.RemoveClient(conn)
		conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/papelariadigital/atendente/internal/services"
	"github.com/papelariadigital/atendente/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Success   bool   `json:"success"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "Mensagem não fornecida", err))
		return
	}
	if req.Message == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Chat", "Mensagem não fornecida", nil))
		return
	}

	reply, sid, err := h.svc.ProcessMessage(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  reply,
		SessionID: sid,
		Success:   true,
	})
}

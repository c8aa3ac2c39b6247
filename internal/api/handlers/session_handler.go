package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/papelariadigital/atendente/internal/cache"
	"github.com/papelariadigital/atendente/internal/services"
	"github.com/papelariadigital/atendente/internal/utils"
)

type SessionHandler struct {
	svc   services.SessionService
	cache cache.Cache
}

func NewSessionHandler(svc services.SessionService, c cache.Cache) *SessionHandler {
	return &SessionHandler{svc: svc, cache: c}
}

// Get returns the collected order state for a session (debug/support).
func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.svc.Get(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type ResetRequest struct {
	SessionID string `json:"session_id"`
}

// Reset clears the transient state held in Redis (checkout lock, cached
// catalog prompt). The persisted session record and conversation log are
// kept, matching the historical behavior of the endpoint.
func (h *SessionHandler) Reset(c *gin.Context) {
	var req ResetRequest
	_ = c.ShouldBindJSON(&req)

	keys := []string{"catalog:prompt"}
	if req.SessionID != "" {
		keys = append(keys, "checkout:lock:"+req.SessionID)
	}

	if err := h.cache.Del(c.Request.Context(), keys...); err != nil {
		writeError(c, utils.E(utils.CodeInternal, "SessionHandler.Reset", "falha ao limpar estado transitório", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

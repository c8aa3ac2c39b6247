package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/papelariadigital/atendente/internal/api/handlers"
)

type Deps struct {
	Chat    *handlers.ChatHandler
	Payment *handlers.PaymentHandler
	Session *handlers.SessionHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	r.POST("/chat", d.Chat.Chat)
	r.POST("/pix", d.Payment.CreatePix)
	r.POST("/test-pix", d.Payment.TestPix)
	r.POST("/reset", d.Session.Reset)
	r.GET("/session/:session_id", d.Session.Get)
}

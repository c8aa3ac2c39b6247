package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/papelariadigital/atendente/internal/utils"
)

type APIError struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		c.JSON(status, APIError{Error: ae.Message, Success: false})
		return
	}

	c.JSON(status, APIError{
		Error:   "Desculpe, ocorreu um erro interno. Tente novamente.",
		Success: false,
	})
}

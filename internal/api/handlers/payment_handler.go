package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/papelariadigital/atendente/internal/providers/payment"
	"github.com/papelariadigital/atendente/internal/utils"
)

// PaymentHandler exposes direct PIX issuance, bypassing the conversation.
type PaymentHandler struct {
	payments payment.Provider
}

func NewPaymentHandler(payments payment.Provider) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type PixRequest struct {
	Name        string  `json:"name"`
	CPFCnpj     string  `json:"cpfCnpj"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	BillingType string  `json:"billingType"`
}

func (h *PaymentHandler) CreatePix(c *gin.Context) {
	var req PixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PaymentHandler.CreatePix", "corpo da requisição inválido", err))
		return
	}

	if field, ok := missingPixField(req); !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PaymentHandler.CreatePix", "Campo obrigatório: "+field, nil))
		return
	}

	result := h.payments.GeneratePix(c.Request.Context(), payment.ChargeRequest{
		Nome:        req.Name,
		CPFCnpj:     req.CPFCnpj,
		Valor:       req.Value,
		Descricao:   req.Description,
		BillingType: req.BillingType,
	})

	if !result.Success {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TestPix issues a fixed test charge against the bridge.
func (h *PaymentHandler) TestPix(c *gin.Context) {
	result := h.payments.GeneratePix(c.Request.Context(), payment.ChargeRequest{
		Nome:      "Cliente Teste",
		CPFCnpj:   "36259795005",
		Valor:     120.00,
		Descricao: "Pagamento do produto",
	})

	if !result.Success {
		c.JSON(http.StatusServiceUnavailable, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func missingPixField(req PixRequest) (string, bool) {
	switch {
	case req.Name == "":
		return "name", false
	case req.CPFCnpj == "":
		return "cpfCnpj", false
	case req.Value <= 0:
		return "value", false
	case req.Description == "":
		return "description", false
	}
	return "", true
}

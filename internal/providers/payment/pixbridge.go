package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// PixBridge issues PIX charges through the Asaas bridge API.
type PixBridge struct {
	url     string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
	now     func() time.Time
}

func NewPixBridge(url, token string, log *logrus.Logger) *PixBridge {
	return &PixBridge{
		url:   url,
		token: token,
		// The bridge can be slow when Asaas is degraded; keep a generous
		// but bounded ceiling.
		http: &http.Client{Timeout: 30 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "pix-bridge",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
		log: log,
		now: time.Now,
	}
}

type chargePayload struct {
	Name        string  `json:"name"`
	CPFCnpj     string  `json:"cpfCnpj"`
	Value       float64 `json:"value"`
	DueDate     string  `json:"dueDate"`
	Description string  `json:"description"`
	BillingType string  `json:"billingType"`
}

type chargeResponse struct {
	InvoiceURL  string `json:"invoiceUrl"`
	QRCode      string `json:"qrCode"`
	PaymentLink string `json:"paymentLink"`
	ID          string `json:"id"`
}

func (p *PixBridge) GeneratePix(ctx context.Context, req ChargeRequest) Result {
	billing := req.BillingType
	if billing == "" {
		billing = "pix"
	}

	p.log.WithFields(logrus.Fields{
		"nome":  req.Nome,
		"valor": req.Valor,
	}).Info("gerando cobrança pix")

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.generate(ctx, chargePayload{
			Name:        req.Nome,
			CPFCnpj:     req.CPFCnpj,
			Value:       req.Valor,
			DueDate:     p.now().AddDate(0, 0, 7).Format("2006-01-02"),
			Description: req.Descricao,
			BillingType: billing,
		})
	})
	if err != nil {
		p.log.WithError(err).Error("falha ao gerar pix")
		return Result{Success: false, Error: "Erro de conexão com a API. Tente novamente ou entre em contato."}
	}
	return out.(Result)
}

func (p *PixBridge) generate(ctx context.Context, payload chargePayload) (Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Auth-Token", p.token)

	resp, err := p.http.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	if resp.StatusCode != http.StatusOK {
		p.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(raw),
		}).Error("bridge pix recusou a cobrança")
		// Provider rejections are terminal for this attempt but must not
		// trip the breaker: the next message can retry with corrected data.
		return Result{
			Success: false,
			Error:   fmt.Sprintf("Erro na API: %d. Tente novamente ou entre em contato.", resp.StatusCode),
		}, nil
	}

	var decoded chargeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, err
	}

	return Result{
		Success: true,
		PixURL:  decoded.InvoiceURL,
		QRCode:  decoded.QRCode,
		PixCode: decoded.PaymentLink,
		ID:      decoded.ID,
	}, nil
}

package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Fallback values used when the carrier API cannot be reached. Checkout
// must not fail because of freight.
const (
	FallbackValor = 15.50
	FallbackPrazo = "5-7 dias úteis"
)

// MelhorEnvio calls the Melhor Envio shipment calculator. All failure
// paths degrade to the fixed fallback quote.
type MelhorEnvio struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

func NewMelhorEnvio(baseURL, token string, log *logrus.Logger) *MelhorEnvio {
	return &MelhorEnvio{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "melhor-envio",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 3
			},
		}),
		log: log,
	}
}

type calculateRequest struct {
	From    calculateEndpoint `json:"from"`
	To      calculateEndpoint `json:"to"`
	Package calculatePackage  `json:"package"`
}

type calculateEndpoint struct {
	PostalCode string `json:"postal_code"`
}

type calculatePackage struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

type calculateResponse struct {
	Price        json.Number `json:"price"`
	DeliveryTime int         `json:"delivery_time"`
}

func (m *MelhorEnvio) Calculate(ctx context.Context, origemCEP, destinoCEP string, pkg Package) Quote {
	m.log.WithFields(logrus.Fields{"de": origemCEP, "para": destinoCEP}).Info("calculando frete")

	out, err := m.breaker.Execute(func() (interface{}, error) {
		return m.calculate(ctx, origemCEP, destinoCEP, pkg)
	})
	if err != nil {
		m.log.WithError(err).Warn("frete indisponível, usando valor padrão")
		return Quote{Success: false, Valor: FallbackValor, Prazo: FallbackPrazo, Err: err.Error()}
	}
	return out.(Quote)
}

func (m *MelhorEnvio) calculate(ctx context.Context, origemCEP, destinoCEP string, pkg Package) (Quote, error) {
	body, err := json.Marshal(calculateRequest{
		From: calculateEndpoint{PostalCode: origemCEP},
		To:   calculateEndpoint{PostalCode: destinoCEP},
		Package: calculatePackage{
			Height: pkg.AlturaCm,
			Width:  pkg.LarguraCm,
			Length: pkg.ComprimentoCm,
			Weight: pkg.PesoKg,
		},
	})
	if err != nil {
		return Quote{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/api/v2/me/shipment/calculate", bytes.NewReader(body))
	if err != nil {
		return Quote{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.token)
	req.Header.Set("User-Agent", "Papelaria Digital")

	resp, err := m.http.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("melhor envio: status %d", resp.StatusCode)
	}

	var decoded calculateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Quote{}, err
	}

	valor, err := decoded.Price.Float64()
	if err != nil || valor <= 0 {
		return Quote{}, fmt.Errorf("melhor envio: preço inválido %q", decoded.Price)
	}

	prazo := FallbackPrazo
	if decoded.DeliveryTime > 0 {
		prazo = fmt.Sprintf("%d dias úteis", decoded.DeliveryTime)
	}
	return Quote{Success: true, Valor: valor, Prazo: prazo}, nil
}

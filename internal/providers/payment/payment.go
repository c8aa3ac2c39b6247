package payment

import "context"

// ChargeRequest is one PIX charge to be issued.
type ChargeRequest struct {
	Nome        string
	CPFCnpj     string
	Valor       float64
	Descricao   string
	BillingType string // defaults to "pix"
}

// Result is the tagged outcome of a charge. Provider implementations never
// return Go errors past this boundary; failures come back as
// Result{Success:false, Error:...} with user-presentable text.
type Result struct {
	Success bool   `json:"success"`
	PixURL  string `json:"pix_url,omitempty"`
	QRCode  string `json:"qr_code,omitempty"`
	PixCode string `json:"pix_code,omitempty"`
	ID      string `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Provider abstracts the external PIX issuance API.
type Provider interface {
	GeneratePix(ctx context.Context, req ChargeRequest) Result
}

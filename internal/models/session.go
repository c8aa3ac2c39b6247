package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order lifecycle status values.
const (
	StatusEmAndamento = "em_andamento"
	StatusCompleto    = "completo"
	StatusCancelado   = "cancelado"
)

// CustomerSession holds one customer's order-taking conversation state:
// the fields collected so far, the pricing computed at checkout, and the
// PIX issuance gate.
type CustomerSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4

	// Customer data
	Nome             string `bson:"nome,omitempty" json:"nome,omitempty"`
	CPF              string `bson:"cpf,omitempty" json:"cpf,omitempty"` // 11 digits, no punctuation
	Telefone         string `bson:"telefone,omitempty" json:"telefone,omitempty"`
	EnderecoCompleto string `bson:"endereco_completo,omitempty" json:"endereco_completo,omitempty"`
	CEP              string `bson:"cep,omitempty" json:"cep,omitempty"` // 8 digits, no punctuation

	// Product data
	Produto       string `bson:"produto,omitempty" json:"produto,omitempty"`
	Tamanho       string `bson:"tamanho,omitempty" json:"tamanho,omitempty"`
	Opcoes        string `bson:"opcoes,omitempty" json:"opcoes,omitempty"`
	Quantidade    int    `bson:"quantidade,omitempty" json:"quantidade,omitempty"`
	NumeroPaginas int    `bson:"numero_paginas,omitempty" json:"numero_paginas,omitempty"`

	// Pricing, written only by the checkout flow
	PrecoUnitario     float64 `bson:"preco_unitario,omitempty" json:"preco_unitario,omitempty"`
	PrecoTotalProduto float64 `bson:"preco_total_produto,omitempty" json:"preco_total_produto,omitempty"`
	Frete             float64 `bson:"frete,omitempty" json:"frete,omitempty"`
	PrecoTotalFinal   float64 `bson:"preco_total_final,omitempty" json:"preco_total_final,omitempty"`

	// Order status
	Status    string `bson:"status" json:"status"` // em_andamento|completo|cancelado
	PixGerado bool   `bson:"pix_gerado" json:"pix_gerado"`
	PixURL    string `bson:"pix_url,omitempty" json:"pix_url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// MissingFields returns the labels of required fields still empty, in the
// order the attendant asks for them. endereco_completo appears here (it is
// prompted for) even though ReadyForCheckout does not require it.
func (s *CustomerSession) MissingFields() []string {
	required := []struct {
		label string
		set   bool
	}{
		{"produto", s.Produto != ""},
		{"tamanho", s.Tamanho != ""},
		{"opcoes", s.Opcoes != ""},
		{"quantidade", s.Quantidade > 0},
		{"nome", s.Nome != ""},
		{"cpf", s.CPF != ""},
		{"endereco_completo", s.EnderecoCompleto != ""},
		{"cep", s.CEP != ""},
	}

	var missing []string
	for _, f := range required {
		if !f.set {
			missing = append(missing, f.label)
		}
	}
	return missing
}

// ReadyForCheckout reports whether the session can be priced and charged.
// The gate is produto, tamanho, opcoes, quantidade, nome, cpf and cep;
// endereco_completo is collected but does not block checkout.
func (s *CustomerSession) ReadyForCheckout() bool {
	return s.Produto != "" &&
		s.Tamanho != "" &&
		s.Opcoes != "" &&
		s.Quantidade > 0 &&
		s.Nome != "" &&
		s.CPF != "" &&
		s.CEP != ""
}

// FieldUpdates is a partial update over the collectable session fields.
// Nil members are no-ops, so an update can never clear a field; the field
// set is closed by construction (unknown keys cannot be expressed).
type FieldUpdates struct {
	Produto          *string `json:"produto,omitempty"`
	Tamanho          *string `json:"tamanho,omitempty"`
	Opcoes           *string `json:"opcoes,omitempty"`
	Quantidade       *int    `json:"quantidade,omitempty"`
	NumeroPaginas    *int    `json:"numero_paginas,omitempty"`
	Nome             *string `json:"nome,omitempty"`
	CPF              *string `json:"cpf,omitempty"`
	EnderecoCompleto *string `json:"endereco_completo,omitempty"`
	CEP              *string `json:"cep,omitempty"`
	Telefone         *string `json:"telefone,omitempty"`
}

// IsEmpty reports whether no field is being updated.
func (u FieldUpdates) IsEmpty() bool {
	return u.Produto == nil &&
		u.Tamanho == nil &&
		u.Opcoes == nil &&
		u.Quantidade == nil &&
		u.NumeroPaginas == nil &&
		u.Nome == nil &&
		u.CPF == nil &&
		u.EnderecoCompleto == nil &&
		u.CEP == nil &&
		u.Telefone == nil
}

// Pricing carries the amounts persisted when a PIX charge is issued.
type Pricing struct {
	PrecoUnitario     float64
	PrecoTotalProduto float64
	Frete             float64
	PrecoTotalFinal   float64
}

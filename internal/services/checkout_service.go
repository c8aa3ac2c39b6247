package services

import (
	"context"
	"fmt"
	"time"

	"github.com/papelariadigital/atendente/internal/cache"
	"github.com/papelariadigital/atendente/internal/catalog"
	"github.com/papelariadigital/atendente/internal/models"
	"github.com/papelariadigital/atendente/internal/providers/payment"
	"github.com/papelariadigital/atendente/internal/providers/shipping"
	mongorepo "github.com/papelariadigital/atendente/internal/repositories/mongo"
	"github.com/papelariadigital/atendente/internal/utils"

	"github.com/sirupsen/logrus"
)

// OrigemCEP is the shop's dispatch postal code, the fixed freight origin.
const OrigemCEP = "01310-100"

const checkoutLockTTL = 30 * time.Second

// CatalogLoader produces a fresh catalog index. The index is cheap to
// rebuild and is never shared across requests.
type CatalogLoader func() (*catalog.Index, error)

// LegacyOrder carries the model-supplied order data from the legacy
// "generate_pix" action JSON.
type LegacyOrder struct {
	Produto      string  `json:"produto"`
	Tamanho      string  `json:"tamanho"`
	Opcoes       string  `json:"opcoes"`
	Quantidade   int     `json:"quantidade"`
	Nome         string  `json:"nome"`
	CPF          string  `json:"cpf"`
	Endereco     string  `json:"endereco"`
	CEP          string  `json:"cep"`
	ValorProduto float64 `json:"valor_produto"`
	Descricao    string  `json:"descricao"`
}

// CheckoutService resolves a completed session against the catalog,
// quotes freight, issues the PIX charge and closes the session's payment
// gate, at most once per session.
type CheckoutService interface {
	// Resolve runs the gated checkout for a session that satisfies
	// ReadyForCheckout. The returned reply replaces the model's answer for
	// the turn; an empty reply means checkout did not run (gate already
	// closed, or another attempt holds the session lock).
	Resolve(ctx context.Context, sessionID string) (string, error)

	// LegacyGeneratePix runs the ungated one-shot flow for the model's own
	// "generate_pix" action payload. It does not consult or set the
	// session gate.
	LegacyGeneratePix(ctx context.Context, ord LegacyOrder) string
}

type checkoutService struct {
	sessions    mongorepo.SessionRepository
	loadCatalog CatalogLoader
	shipping    shipping.Provider
	payments    payment.Provider
	locks       cache.Locker
	log         *logrus.Logger
}

func NewCheckoutService(
	sessions mongorepo.SessionRepository,
	loadCatalog CatalogLoader,
	ship shipping.Provider,
	pay payment.Provider,
	locks cache.Locker,
	log *logrus.Logger,
) CheckoutService {
	return &checkoutService{
		sessions:    sessions,
		loadCatalog: loadCatalog,
		shipping:    ship,
		payments:    pay,
		locks:       locks,
		log:         log,
	}
}

func (s *checkoutService) Resolve(ctx context.Context, sessionID string) (string, error) {
	const op = "CheckoutService.Resolve"

	// Per-session mutual exclusion: a double-submit must not issue two
	// charges. Whoever loses the lock simply skips checkout this turn.
	got, err := s.locks.Acquire(ctx, checkoutLockKey(sessionID), checkoutLockTTL)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to acquire checkout lock", err)
	}
	if !got {
		s.log.WithField("session_id", sessionID).Warn("checkout já em andamento, ignorando")
		return "", nil
	}
	defer func() { _ = s.locks.Release(ctx, checkoutLockKey(sessionID)) }()

	// Fresh read inside the lock: a concurrent attempt may have closed the
	// gate between the caller's check and here.
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	if sess.PixGerado || !sess.ReadyForCheckout() {
		return "", nil
	}

	idx, err := s.loadCatalog()
	if err != nil {
		s.log.WithError(err).Error("catálogo indisponível no checkout")
		return "No momento o catálogo está indisponível e não consigo fechar seu pedido. Tente novamente em instantes.", nil
	}

	opt, found := idx.Lookup(sess.Produto, sess.Tamanho, sess.Opcoes)
	if !found {
		s.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"produto":    sess.Produto,
			"tamanho":    sess.Tamanho,
			"opcoes":     sess.Opcoes,
		}).Warn("produto não encontrado no catálogo")
		// Gate stays open: a later message correcting a field retries.
		return "❌ Produto não encontrado no catálogo. Verifique as informações do pedido.", nil
	}

	precoUnitario := opt.Preco
	precoProduto := precoUnitario * float64(sess.Quantidade)

	destino := sess.CEP
	if destino == "" {
		destino = OrigemCEP
	}
	frete := s.shipping.Calculate(ctx, OrigemCEP, destino, shipping.DefaultPackage)

	total := precoProduto + frete.Valor

	res := s.payments.GeneratePix(ctx, payment.ChargeRequest{
		Nome:      sess.Nome,
		CPFCnpj:   sess.CPF,
		Valor:     total,
		Descricao: fmt.Sprintf("%s %s %s - %d unidades", sess.Produto, sess.Tamanho, sess.Opcoes, sess.Quantidade),
	})
	if !res.Success {
		// Retryable: the gate is still false, so the next message triggers
		// another attempt.
		return fmt.Sprintf("❌ Erro ao gerar PIX: %s. Tente novamente ou entre em contato.", res.Error), nil
	}

	pricing := models.Pricing{
		PrecoUnitario:     precoUnitario,
		PrecoTotalProduto: precoProduto,
		Frete:             frete.Valor,
		PrecoTotalFinal:   total,
	}
	closed, err := s.sessions.MarkPixGenerated(ctx, sessionID, pricing, res.PixURL)
	if err != nil {
		// The charge was issued but the gate write failed; surface loudly
		// so the order can be reconciled by hand.
		s.log.WithError(err).WithField("session_id", sessionID).Error("pix emitido mas gate não persistido")
		return "", utils.E(utils.CodeInternal, op, "failed to persist payment state", err)
	}
	if !closed {
		s.log.WithField("session_id", sessionID).Warn("gate já fechado por outra tentativa")
	}

	return orderSummary(sess, pricing, res, frete.Prazo), nil
}

func (s *checkoutService) LegacyGeneratePix(ctx context.Context, ord LegacyOrder) string {
	destino := ord.CEP
	if destino == "" {
		destino = OrigemCEP
	}
	frete := s.shipping.Calculate(ctx, OrigemCEP, destino, shipping.DefaultPackage)

	valorProduto := ord.ValorProduto
	if valorProduto <= 0 {
		valorProduto = 50.00
	}
	total := valorProduto + frete.Valor

	descricao := ord.Descricao
	if descricao == "" {
		descricao = "Compra na Papelaria Digital"
	}

	res := s.payments.GeneratePix(ctx, payment.ChargeRequest{
		Nome:      ord.Nome,
		CPFCnpj:   ord.CPF,
		Valor:     total,
		Descricao: descricao,
	})
	if !res.Success {
		return fmt.Sprintf("Desculpe, ocorreu um erro ao gerar o PIX: %s. Por favor, tente novamente ou entre em contato conosco.", res.Error)
	}

	return fmt.Sprintf(`Perfeito! Seu pedido foi processado com sucesso!

📦 **RESUMO DO PEDIDO:**
• Produto: %s
• Tamanho: %s
• Opções: %s
• Quantidade: %d
• Valor do produto: R$ %.2f
• Frete: R$ %.2f
• **Total: R$ %.2f**

💳 **PAGAMENTO PIX GERADO:**
Para finalizar sua compra, realize o pagamento via PIX:

🔗 **Link de pagamento:** %s

Após a confirmação do pagamento, seu pedido será processado e enviado em até 2 dias úteis.

Obrigado por escolher a Papelaria Digital! 😊`,
		ord.Produto, ord.Tamanho, ord.Opcoes, ord.Quantidade,
		valorProduto, frete.Valor, total, res.PixURL)
}

func orderSummary(sess *models.CustomerSession, pricing models.Pricing, res payment.Result, prazo string) string {
	qrCode := res.QRCode
	if qrCode == "" {
		qrCode = "Disponível no link acima"
	}

	return fmt.Sprintf(`🎉 **PEDIDO FINALIZADO COM SUCESSO!**

📦 **RESUMO DO PEDIDO:**
• Produto: %s
• Tamanho: %s
• Opções: %s
• Quantidade: %d unidades
• Preço unitário: R$ %.2f
• Subtotal produtos: R$ %.2f
• Frete: R$ %.2f
• **TOTAL: R$ %.2f**

👤 **DADOS DO CLIENTE:**
• Nome: %s
• CPF: %s
• CEP: %s

💳 **PAGAMENTO PIX GERADO:**
🔗 **Link para pagamento:** %s

📱 **QR Code PIX:** %s

⏰ **Prazo de entrega:** %s

Após a confirmação do pagamento, seu pedido será processado e enviado. Obrigado por escolher a Papelaria Digital! ✨`,
		sess.Produto, sess.Tamanho, sess.Opcoes, sess.Quantidade,
		pricing.PrecoUnitario, pricing.PrecoTotalProduto, pricing.Frete, pricing.PrecoTotalFinal,
		sess.Nome, sess.CPF, sess.CEP,
		res.PixURL, qrCode, prazo)
}

func checkoutLockKey(sessionID string) string { return "checkout:lock:" + sessionID }

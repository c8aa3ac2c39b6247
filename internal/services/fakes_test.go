package services

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/papelariadigital/atendente/internal/catalog"
	"github.com/papelariadigital/atendente/internal/models"
	"github.com/papelariadigital/atendente/internal/providers/payment"
	"github.com/papelariadigital/atendente/internal/providers/shipping"
	"github.com/papelariadigital/atendente/internal/utils"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testCatalogLoader() CatalogLoader {
	rows := []catalog.Row{
		{Produto: "Banner", Tamanho: "120x80", Opcao: "Lona", PrecoUnidade: "R$ 50,00", Campo: "preco_unidade"},
		{Produto: "Banner", Tamanho: "120x80", Opcao: "Vinil", PrecoUnidade: "R$ 65,00", Campo: "preco_unidade"},
		{Produto: "Livro Grampo Colorido", Tamanho: "A4", Opcao: "Com Shrink", PrecoUnidade: "R$ 35,50", Campo: "preco_unidade"},
	}
	return func() (*catalog.Index, error) { return catalog.Build(rows) }
}

// fakeSessionRepo is an in-memory SessionRepository with the same CAS
// semantics as the Mongo implementation.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.CustomerSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*models.CustomerSession{}}
}

func (r *fakeSessionRepo) put(s models.CustomerSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.SessionID] = &s
}

func (r *fakeSessionRepo) GetOrCreate(_ context.Context, sessionID string) (*models.CustomerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		cp := *s
		return &cp, nil
	}
	now := time.Now().UTC()
	s := &models.CustomerSession{
		SessionID: sessionID,
		Status:    models.StatusEmAndamento,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.sessions[sessionID] = s
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) Get(_ context.Context, sessionID string) (*models.CustomerSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) ApplyUpdates(_ context.Context, sessionID string, upd models.FieldUpdates) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return utils.ErrNotFound
	}
	setStr := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	setStr(&s.Produto, upd.Produto)
	setStr(&s.Tamanho, upd.Tamanho)
	setStr(&s.Opcoes, upd.Opcoes)
	setStr(&s.Nome, upd.Nome)
	setStr(&s.CPF, upd.CPF)
	setStr(&s.EnderecoCompleto, upd.EnderecoCompleto)
	setStr(&s.CEP, upd.CEP)
	setStr(&s.Telefone, upd.Telefone)
	if upd.Quantidade != nil {
		s.Quantidade = *upd.Quantidade
	}
	if upd.NumeroPaginas != nil {
		s.NumeroPaginas = *upd.NumeroPaginas
	}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeSessionRepo) MarkPixGenerated(_ context.Context, sessionID string, pricing models.Pricing, pixURL string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok || s.PixGerado {
		return false, nil
	}
	s.PrecoUnitario = pricing.PrecoUnitario
	s.PrecoTotalProduto = pricing.PrecoTotalProduto
	s.Frete = pricing.Frete
	s.PrecoTotalFinal = pricing.PrecoTotalFinal
	s.PixGerado = true
	s.PixURL = pixURL
	s.Status = models.StatusCompleto
	s.UpdatedAt = time.Now().UTC()
	return true, nil
}

// fakeLocker is a process-local Locker.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: map[string]bool{}}
}

func (l *fakeLocker) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// fakeShipping returns a fixed quote and records calls.
type fakeShipping struct {
	mu    sync.Mutex
	quote shipping.Quote
	calls []struct{ Origem, Destino string }
}

func newFakeShipping() *fakeShipping {
	return &fakeShipping{quote: shipping.Quote{Success: false, Valor: shipping.FallbackValor, Prazo: shipping.FallbackPrazo}}
}

func (f *fakeShipping) Calculate(_ context.Context, origemCEP, destinoCEP string, _ shipping.Package) shipping.Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, struct{ Origem, Destino string }{origemCEP, destinoCEP})
	return f.quote
}

// fakePayment returns a fixed result and records every charge request.
type fakePayment struct {
	mu       sync.Mutex
	result   payment.Result
	delay    time.Duration
	requests []payment.ChargeRequest
}

func newFakePayment() *fakePayment {
	return &fakePayment{result: payment.Result{
		Success: true,
		PixURL:  "https://pix.example/abc",
		QRCode:  "qr-data",
		ID:      "pay_123",
	}}
}

func (f *fakePayment) GeneratePix(_ context.Context, req payment.ChargeRequest) payment.Result {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.result
}

func (f *fakePayment) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakePayment) lastRequest() payment.ChargeRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// fakeConversationRepo keeps conversation logs in memory with the same
// most-recent-window semantics as the Postgres implementation.
type fakeConversationRepo struct {
	mu   sync.Mutex
	rows []models.ConversationLog
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{}
}

func (r *fakeConversationRepo) Insert(_ context.Context, log *models.ConversationLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, *log)
	return nil
}

func (r *fakeConversationRepo) RecentWindow(_ context.Context, sessionID string, limit int) ([]models.ConversationLog, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine []models.ConversationLog
	for _, row := range r.rows {
		if row.SessionID == sessionID {
			mine = append(mine, row)
		}
	}
	if len(mine) > limit {
		mine = mine[len(mine)-limit:]
	}
	return mine, nil
}

// fakeCache stores marshaled JSON in memory, no TTL handling.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

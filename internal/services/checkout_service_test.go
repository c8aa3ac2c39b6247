package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papelariadigital/atendente/internal/catalog"
	"github.com/papelariadigital/atendente/internal/models"
	"github.com/papelariadigital/atendente/internal/providers/payment"
)

func readySession(sid string) models.CustomerSession {
	return models.CustomerSession{
		SessionID:  sid,
		Produto:    "Banner",
		Tamanho:    "120x80",
		Opcoes:     "Lona",
		Quantidade: 2,
		Nome:       "João Silva",
		CPF:        "36259795005",
		CEP:        "01310100",
		Status:     models.StatusEmAndamento,
	}
}

type checkoutFixture struct {
	sessions *fakeSessionRepo
	locker   *fakeLocker
	ship     *fakeShipping
	pay      *fakePayment
	svc      CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		sessions: newFakeSessionRepo(),
		locker:   newFakeLocker(),
		ship:     newFakeShipping(),
		pay:      newFakePayment(),
	}
	f.svc = NewCheckoutService(f.sessions, testCatalogLoader(), f.ship, f.pay, f.locker, testLogger())
	return f
}

func TestResolveFullCheckout(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)

	// 2 x R$ 50,00 + R$ 15,50 de frete
	assert.Contains(t, reply, "PEDIDO FINALIZADO COM SUCESSO")
	assert.Contains(t, reply, "TOTAL: R$ 115.50")
	assert.Contains(t, reply, "https://pix.example/abc")

	require.Equal(t, 1, f.pay.calls())
	req := f.pay.lastRequest()
	assert.InDelta(t, 115.50, req.Valor, 0.001)
	assert.Equal(t, "João Silva", req.Nome)
	assert.Equal(t, "36259795005", req.CPFCnpj)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sess.PixGerado)
	assert.Equal(t, models.StatusCompleto, sess.Status)
	assert.InDelta(t, 50.00, sess.PrecoUnitario, 0.001)
	assert.InDelta(t, 100.00, sess.PrecoTotalProduto, 0.001)
	assert.InDelta(t, 15.50, sess.Frete, 0.001)
	assert.InDelta(t, 115.50, sess.PrecoTotalFinal, 0.001)
	assert.Equal(t, "https://pix.example/abc", sess.PixURL)
}

func TestResolveUsesFixedOriginAndSessionCEP(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))

	_, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)

	require.Len(t, f.ship.calls, 1)
	assert.Equal(t, OrigemCEP, f.ship.calls[0].Origem)
	assert.Equal(t, "01310100", f.ship.calls[0].Destino)
}

func TestResolveSkipsWhenGateClosed(t *testing.T) {
	f := newCheckoutFixture()
	sess := readySession("s1")
	sess.PixGerado = true
	f.sessions.put(sess)

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Zero(t, f.pay.calls())
}

func TestResolveSkipsWhenNotReady(t *testing.T) {
	f := newCheckoutFixture()
	sess := readySession("s1")
	sess.CPF = ""
	f.sessions.put(sess)

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Zero(t, f.pay.calls())
}

func TestResolveSkipsWhenLockHeld(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))

	got, err := f.locker.Acquire(context.Background(), checkoutLockKey("s1"), time.Minute)
	require.NoError(t, err)
	require.True(t, got)

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, reply)
	assert.Zero(t, f.pay.calls())
}

func TestResolveReleasesLock(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))

	_, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)

	got, err := f.locker.Acquire(context.Background(), checkoutLockKey("s1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestResolveCatalogUnavailable(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))
	broken := func() (*catalog.Index, error) { return nil, errors.New("read produtos.json: no such file") }
	f.svc = NewCheckoutService(f.sessions, broken, f.ship, f.pay, f.locker, testLogger())

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, reply, "catálogo está indisponível")
	assert.Zero(t, f.pay.calls())

	sess, _ := f.sessions.Get(context.Background(), "s1")
	assert.False(t, sess.PixGerado)
}

func TestResolveUnknownProductKeepsGateOpen(t *testing.T) {
	f := newCheckoutFixture()
	sess := readySession("s1")
	sess.Produto = "Adesivo"
	f.sessions.put(sess)

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, reply, "❌ Produto não encontrado no catálogo")
	assert.Zero(t, f.pay.calls())

	after, _ := f.sessions.Get(context.Background(), "s1")
	assert.False(t, after.PixGerado)
}

func TestResolveLivroGrampoFamilyLookup(t *testing.T) {
	f := newCheckoutFixture()
	sess := readySession("s1")
	sess.Produto = "Livro Grampo"
	sess.Tamanho = "A4"
	sess.Opcoes = "Com Shrink"
	sess.Quantidade = 1
	f.sessions.put(sess)

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)

	// 1 x R$ 35,50 + R$ 15,50
	assert.Contains(t, reply, "TOTAL: R$ 51.00")
	assert.Equal(t, 1, f.pay.calls())
}

func TestResolvePaymentFailureIsRetryable(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))
	f.pay.result = payment.Result{Success: false, Error: "Erro na API: 500. Tente novamente ou entre em contato."}

	reply, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, reply, "❌ Erro ao gerar PIX")

	sess, _ := f.sessions.Get(context.Background(), "s1")
	assert.False(t, sess.PixGerado)

	// A later attempt, after the API recovers, closes the gate.
	f.pay.result = newFakePayment().result
	reply, err = f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)
	assert.Contains(t, reply, "PEDIDO FINALIZADO COM SUCESSO")

	sess, _ = f.sessions.Get(context.Background(), "s1")
	assert.True(t, sess.PixGerado)
}

func TestResolveConcurrentAttemptsChargeOnce(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))
	f.pay.delay = 20 * time.Millisecond

	const attempts = 8
	replies := make([]string, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reply, err := f.svc.Resolve(context.Background(), "s1")
			assert.NoError(t, err)
			replies[i] = reply
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.pay.calls())

	var withSummary int
	for _, r := range replies {
		if r != "" {
			withSummary++
		}
	}
	assert.Equal(t, 1, withSummary)

	sess, _ := f.sessions.Get(context.Background(), "s1")
	assert.True(t, sess.PixGerado)
}

func TestResolveGateStaysClosedForever(t *testing.T) {
	f := newCheckoutFixture()
	f.sessions.put(readySession("s1"))

	_, err := f.svc.Resolve(context.Background(), "s1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		reply, err := f.svc.Resolve(context.Background(), "s1")
		require.NoError(t, err)
		assert.Empty(t, reply)
	}
	assert.Equal(t, 1, f.pay.calls())
}

func TestLegacyGeneratePixDefaults(t *testing.T) {
	f := newCheckoutFixture()

	reply := f.svc.LegacyGeneratePix(context.Background(), LegacyOrder{
		Produto:    "Banner",
		Tamanho:    "120x80",
		Opcoes:     "Lona",
		Quantidade: 1,
		Nome:       "João Silva",
		CPF:        "36259795005",
	})

	assert.Contains(t, reply, "Perfeito! Seu pedido foi processado com sucesso!")
	// Defaults: R$ 50,00 de produto + R$ 15,50 de frete
	assert.Contains(t, reply, "Total: R$ 65.50")

	require.Equal(t, 1, f.pay.calls())
	req := f.pay.lastRequest()
	assert.InDelta(t, 65.50, req.Valor, 0.001)
	assert.Equal(t, "Compra na Papelaria Digital", req.Descricao)
}

func TestLegacyGeneratePixExplicitValues(t *testing.T) {
	f := newCheckoutFixture()

	reply := f.svc.LegacyGeneratePix(context.Background(), LegacyOrder{
		Produto:      "Flyer",
		Tamanho:      "14x21",
		Opcoes:       "Simples",
		Quantidade:   100,
		Nome:         "Maria Souza",
		CPF:          "11144477735",
		CEP:          "04538133",
		ValorProduto: 45.00,
		Descricao:    "100 flyers 14x21",
	})

	assert.Contains(t, reply, "Total: R$ 60.50")
	req := f.pay.lastRequest()
	assert.InDelta(t, 60.50, req.Valor, 0.001)
	assert.Equal(t, "100 flyers 14x21", req.Descricao)

	require.Len(t, f.ship.calls, 1)
	assert.Equal(t, "04538133", f.ship.calls[0].Destino)
}

func TestLegacyGeneratePixIsNotGated(t *testing.T) {
	f := newCheckoutFixture()

	ord := LegacyOrder{Produto: "Banner", Nome: "João Silva", CPF: "36259795005"}
	_ = f.svc.LegacyGeneratePix(context.Background(), ord)
	_ = f.svc.LegacyGeneratePix(context.Background(), ord)

	assert.Equal(t, 2, f.pay.calls())
}

func TestLegacyGeneratePixPaymentFailure(t *testing.T) {
	f := newCheckoutFixture()
	f.pay.result = payment.Result{Success: false, Error: "Erro de conexão com a API. Tente novamente ou entre em contato."}

	reply := f.svc.LegacyGeneratePix(context.Background(), LegacyOrder{Nome: "João Silva", CPF: "36259795005"})

	assert.Contains(t, reply, "ocorreu um erro ao gerar o PIX")
}

package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/papelariadigital/atendente/internal/cache"
	"github.com/papelariadigital/atendente/internal/extract"
	"github.com/papelariadigital/atendente/internal/models"
	"github.com/papelariadigital/atendente/internal/providers/llm"
	mongorepo "github.com/papelariadigital/atendente/internal/repositories/mongo"
	"github.com/papelariadigital/atendente/internal/utils"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	historyWindow   = 20
	catalogCacheKey = "catalog:prompt"
	catalogCacheTTL = 5 * time.Minute
)

// ChatService is the per-message orchestrator: it loads the session, runs
// extraction, triggers checkout when the session is complete, and
// otherwise consults the language model.
type ChatService interface {
	// ProcessMessage handles one inbound chat message and returns the
	// reply plus the (possibly newly created) session id.
	ProcessMessage(ctx context.Context, sessionID, message string) (reply string, sid string, err error)
}

type chatService struct {
	sessions    mongorepo.SessionRepository
	convos      ConversationService
	checkout    CheckoutService
	model       llm.Provider
	loadCatalog CatalogLoader
	cache       cache.Cache
	log         *logrus.Logger
}

func NewChatService(
	sessions mongorepo.SessionRepository,
	convos ConversationService,
	checkout CheckoutService,
	model llm.Provider,
	loadCatalog CatalogLoader,
	c cache.Cache,
	log *logrus.Logger,
) ChatService {
	return &chatService{
		sessions:    sessions,
		convos:      convos,
		checkout:    checkout,
		model:       model,
		loadCatalog: loadCatalog,
		cache:       c,
		log:         log,
	}
}

func (s *chatService) ProcessMessage(ctx context.Context, sessionID, message string) (string, string, error) {
	const op = "ChatService.ProcessMessage"

	if strings.TrimSpace(message) == "" {
		return "", "", utils.E(utils.CodeInvalidArgument, op, "Mensagem não fornecida", nil)
	}

	sid := sessionID
	if sid == "" {
		sid = uuid.NewString()
	}

	sess, err := s.sessions.GetOrCreate(ctx, sid)
	if err != nil {
		return "", "", utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	// Extraction only ever fills empty fields, so re-running a message is
	// a no-op.
	upd := extract.FromMessage(message, sess)
	if !upd.IsEmpty() {
		if err := s.sessions.ApplyUpdates(ctx, sid, upd); err != nil {
			return "", "", utils.E(utils.CodeInternal, op, "failed to persist extracted fields", err)
		}
		if sess, err = s.sessions.Get(ctx, sid); err != nil {
			return "", "", utils.E(utils.CodeInternal, op, "failed to reload session", err)
		}
	}

	// Window is read before appending the current message; the model
	// request carries the current message separately at the end.
	history, err := s.convos.RecentWindow(ctx, sid, historyWindow)
	if err != nil {
		return "", "", err
	}

	var metadata []byte
	if !upd.IsEmpty() {
		metadata, _ = json.Marshal(upd)
	}
	if _, err := s.convos.Append(ctx, sid, "user", message, metadata); err != nil {
		return "", "", err
	}

	var reply string

	// Checkout runs before the model is consulted; its result replaces the
	// model's reply for this turn.
	if sess.ReadyForCheckout() && !sess.PixGerado {
		reply, err = s.checkout.Resolve(ctx, sid)
		if err != nil {
			return "", "", err
		}
	}

	if reply == "" {
		reply, err = s.consultModel(ctx, sess, history, message)
		if err != nil {
			return "", "", err
		}
	}

	if _, err := s.convos.Append(ctx, sid, "assistant", reply, nil); err != nil {
		return "", "", err
	}
	return reply, sid, nil
}

func (s *chatService) consultModel(ctx context.Context, sess *models.CustomerSession, history []models.ConversationLog, message string) (string, error) {
	const op = "ChatService.consultModel"

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: BuildSystemPrompt(s.catalogText(ctx), sess)})
	for _, row := range history {
		role := llm.RoleUser
		if row.Role == "assistant" {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: row.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	reply, err := s.model.Complete(ctx, messages)
	if err != nil {
		return "", utils.E(utils.CodeUnavailable, op, "assistente indisponível no momento", err)
	}

	// Legacy protocol: the model may answer with its own generate_pix
	// action JSON. That path is deliberately not gated by pix_gerado.
	if ord, ok := parseLegacyAction(reply); ok {
		s.log.WithField("session_id", sess.SessionID).Info("ação generate_pix recebida do modelo")
		reply = s.checkout.LegacyGeneratePix(ctx, ord)
	}
	return reply, nil
}

// catalogText returns the rendered catalog for the system prompt, cached
// briefly so the price file is not re-read on every message.
func (s *chatService) catalogText(ctx context.Context) string {
	var cached string
	if hit, err := s.cache.GetJSON(ctx, catalogCacheKey, &cached); err == nil && hit {
		return cached
	}

	idx, err := s.loadCatalog()
	if err != nil {
		s.log.WithError(err).Error("falha ao carregar catálogo")
		return CatalogUnavailableText
	}

	text := idx.Render()
	if err := s.cache.SetJSON(ctx, catalogCacheKey, text, catalogCacheTTL); err != nil {
		s.log.WithError(err).Warn("falha ao cachear catálogo")
	}
	return text
}

type legacyAction struct {
	Action string      `json:"action"`
	Data   LegacyOrder `json:"data"`
}

// parseLegacyAction defensively decodes the model's action protocol.
// Anything malformed falls back to treating the reply as plain text.
func parseLegacyAction(reply string) (LegacyOrder, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, `"generate_pix"`) {
		return LegacyOrder{}, false
	}

	var act legacyAction
	if err := json.Unmarshal([]byte(trimmed), &act); err != nil {
		return LegacyOrder{}, false
	}
	if act.Action != "generate_pix" {
		return LegacyOrder{}, false
	}
	return act.Data, true
}

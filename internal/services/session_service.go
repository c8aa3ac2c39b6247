package services

import (
	"context"
	"errors"

	"github.com/papelariadigital/atendente/internal/models"
	mongorepo "github.com/papelariadigital/atendente/internal/repositories/mongo"
	"github.com/papelariadigital/atendente/internal/utils"
)

type SessionService interface {
	GetOrCreate(ctx context.Context, sessionID string) (*models.CustomerSession, error)
	Get(ctx context.Context, sessionID string) (*models.CustomerSession, error)
}

type sessionService struct {
	sessions mongorepo.SessionRepository
}

func NewSessionService(sessions mongorepo.SessionRepository) SessionService {
	return &sessionService{sessions: sessions}
}

func (s *sessionService) GetOrCreate(ctx context.Context, sessionID string) (*models.CustomerSession, error) {
	const op = "SessionService.GetOrCreate"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to get or create session", err)
	}
	return out, nil
}

func (s *sessionService) Get(ctx context.Context, sessionID string) (*models.CustomerSession, error) {
	const op = "SessionService.Get"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	out, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get session", err)
	}
	return out, nil
}

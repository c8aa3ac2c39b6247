package services

import (
	"context"
	"time"

	"github.com/papelariadigital/atendente/internal/models"
	pgrepo "github.com/papelariadigital/atendente/internal/repositories/postgres"
	"github.com/papelariadigital/atendente/internal/utils"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ConversationService interface {
	Append(ctx context.Context, sessionID, role, content string, metadataJSON []byte) (*models.ConversationLog, error)
	RecentWindow(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error)
}

type conversationService struct {
	convos pgrepo.ConversationRepo
}

func NewConversationService(convos pgrepo.ConversationRepo) ConversationService {
	return &conversationService{convos: convos}
}

func (s *conversationService) Append(ctx context.Context, sessionID, role, content string, metadataJSON []byte) (*models.ConversationLog, error) {
	const op = "ConversationService.Append"

	if sessionID == "" || role == "" || content == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id, role, and content are required", nil)
	}

	row := &models.ConversationLog{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		Metadata:  datatypes.JSON(metadataJSON),
	}

	if err := s.convos.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to insert conversation log", err)
	}
	return row, nil
}

func (s *conversationService) RecentWindow(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error) {
	const op = "ConversationService.RecentWindow"

	if sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "session_id is required", nil)
	}

	rows, err := s.convos.RecentWindow(ctx, sessionID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list conversation window", err)
	}
	return rows, nil
}

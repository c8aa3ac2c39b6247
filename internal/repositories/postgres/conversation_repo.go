package postgres

import (
	"context"

	"github.com/papelariadigital/atendente/internal/models"
	"gorm.io/gorm"
)

type ConversationRepo interface {
	Insert(ctx context.Context, log *models.ConversationLog) error
	// RecentWindow returns the most recent limit entries for the session in
	// chronological order.
	RecentWindow(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error)
}

type conversationRepo struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) Insert(ctx context.Context, log *models.ConversationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *conversationRepo) RecentWindow(ctx context.Context, sessionID string, limit int) ([]models.ConversationLog, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []models.ConversationLog
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Query is DESC for the LIMIT; the model wants chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

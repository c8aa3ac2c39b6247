package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/papelariadigital/atendente/internal/models"
	"github.com/papelariadigital/atendente/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository interface {
	// GetOrCreate returns the session for sessionID, creating it if absent.
	// Safe under concurrent first access for the same id.
	GetOrCreate(ctx context.Context, sessionID string) (*models.CustomerSession, error)
	Get(ctx context.Context, sessionID string) (*models.CustomerSession, error)
	// ApplyUpdates writes only the non-nil fields of upd and bumps
	// updated_at. An empty update is a no-op.
	ApplyUpdates(ctx context.Context, sessionID string, upd models.FieldUpdates) error
	// MarkPixGenerated persists pricing, pix_url and pix_gerado=true, but
	// only if pix_gerado is still false. Returns false when another writer
	// already closed the gate.
	MarkPixGenerated(ctx context.Context, sessionID string, pricing models.Pricing, pixURL string) (bool, error)
}

type sessionRepo struct {
	col *mongo.Collection
}

func NewSessionRepo(db *mongo.Database) SessionRepository {
	return &sessionRepo{col: db.Collection("customer_sessions")}
}

func (r *sessionRepo) GetOrCreate(ctx context.Context, sessionID string) (*models.CustomerSession, error) {
	now := time.Now().UTC()

	// Upsert under the unique session_id index: concurrent first accesses
	// converge on a single document.
	res := r.col.FindOneAndUpdate(ctx,
		bson.M{"session_id": sessionID},
		bson.M{
			"$setOnInsert": bson.M{
				"session_id": sessionID,
				"status":     models.StatusEmAndamento,
				"pix_gerado": false,
				"created_at": now,
				"updated_at": now,
			},
		},
		options.FindOneAndUpdate().
			SetUpsert(true).
			SetReturnDocument(options.After),
	)

	var s models.CustomerSession
	if err := res.Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Get(ctx context.Context, sessionID string) (*models.CustomerSession, error) {
	var s models.CustomerSession
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) ApplyUpdates(ctx context.Context, sessionID string, upd models.FieldUpdates) error {
	set := bson.M{}
	setField(set, "produto", upd.Produto)
	setField(set, "tamanho", upd.Tamanho)
	setField(set, "opcoes", upd.Opcoes)
	setField(set, "nome", upd.Nome)
	setField(set, "cpf", upd.CPF)
	setField(set, "endereco_completo", upd.EnderecoCompleto)
	setField(set, "cep", upd.CEP)
	setField(set, "telefone", upd.Telefone)
	if upd.Quantidade != nil {
		set["quantidade"] = *upd.Quantidade
	}
	if upd.NumeroPaginas != nil {
		set["numero_paginas"] = *upd.NumeroPaginas
	}
	if len(set) == 0 {
		return nil
	}
	set["updated_at"] = time.Now().UTC()

	_, err := r.col.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{"$set": set})
	return err
}

func (r *sessionRepo) MarkPixGenerated(ctx context.Context, sessionID string, pricing models.Pricing, pixURL string) (bool, error) {
	// Conditional write on pix_gerado=false: the gate flips false->true at
	// most once per session no matter how many writers race here.
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "pix_gerado": false},
		bson.M{"$set": bson.M{
			"preco_unitario":      pricing.PrecoUnitario,
			"preco_total_produto": pricing.PrecoTotalProduto,
			"frete":               pricing.Frete,
			"preco_total_final":   pricing.PrecoTotalFinal,
			"pix_gerado":          true,
			"pix_url":             pixURL,
			"status":              models.StatusCompleto,
			"updated_at":          time.Now().UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func setField(set bson.M, key string, v *string) {
	if v != nil && *v != "" {
		set[key] = *v
	}
}

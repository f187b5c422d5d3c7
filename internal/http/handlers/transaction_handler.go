package handlers

import (
	"context"

	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/models"
	"github.com/fellas-token/backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TxReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChainTransaction, error)
	ListRecent(ctx context.Context, limit int) ([]models.ChainTransaction, error)
}

type AuditReader interface {
	GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error)
}

type TransactionHandler struct {
	txs   TxReader
	audit AuditReader
	log   *zap.Logger
}

func NewTransactionHandler(txs TxReader, audit AuditReader, log *zap.Logger) *TransactionHandler {
	return &TransactionHandler{txs: txs, audit: audit, log: log}
}

// ListTransactions returns the latest contract writes.
// GET /transactions?limit=
func (h *TransactionHandler) ListTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit > 100 {
		limit = 100
	}
	txs, err := h.txs.ListRecent(c.UserContext(), limit)
	if err != nil {
		return fail(c, h.log, err)
	}
	if txs == nil {
		txs = []models.ChainTransaction{}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: txs})
}

// GetTransaction returns one write with its audit trail.
// GET /transactions/:id
func (h *TransactionHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid transaction id")
	}
	tx, err := h.txs.GetByID(c.UserContext(), id)
	if repositories.IsNotFound(err) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "transaction not found"})
	}
	if err != nil {
		return fail(c, h.log, err)
	}

	var trail []models.AuditLog
	if h.audit != nil {
		trail, err = h.audit.GetByEntity(c.UserContext(), models.EntityChainTransaction, id, 50, 0)
		if err != nil {
			h.log.Warn("audit lookup failed", zap.String("id", id.String()), zap.Error(err))
		}
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.TransactionResponse{Transaction: tx, Audit: trail}})
}

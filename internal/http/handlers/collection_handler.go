package handlers

import (
	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/middleware"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type CollectionHandler struct {
	collection *services.CollectionService
	log        *zap.Logger
}

func NewCollectionHandler(collection *services.CollectionService, log *zap.Logger) *CollectionHandler {
	return &CollectionHandler{collection: collection, log: log}
}

// GetCollection reconciles and returns count, balance and the visible slots.
// GET /collection
func (h *CollectionHandler) GetCollection(c *fiber.Ctx) error {
	snap, err := h.collection.Snapshot(c.UserContext())
	if err != nil {
		h.log.Warn("collection snapshot degraded", zap.Error(err))
		if c.QueryBool("strict") {
			return fail(c, h.log, err)
		}
		snap = h.collection.Cached()
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: snap})
}

// Refresh forces a reconcile pass and announces it.
// POST /collection/refresh
func (h *CollectionHandler) Refresh(c *fiber.Ctx) error {
	snap, err := h.collection.Refresh(c.UserContext())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: snap})
}

// Withdraw pays the contract balance out to its owner.
// POST /withdraw
func (h *CollectionHandler) Withdraw(c *fiber.Ctx) error {
	res, err := h.collection.Withdraw(c.UserContext(), middleware.GetOperator(c))
	if err != nil {
		return fail(c, h.log, err)
	}
	if !res.OK {
		return txFailed(c, res.TxResult, res)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

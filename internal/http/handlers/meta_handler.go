package handlers

import (
	"github.com/fellas-token/backend/internal/config"
	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

type MetaHandler struct {
	meta dto.MetaResponse
}

func NewMetaHandler(cfg *config.Config) *MetaHandler {
	return &MetaHandler{meta: dto.MetaResponse{
		Contract:     cfg.ContractAddress,
		ContentID:    cfg.ContentID,
		IPFSGateway:  cfg.IPFSGateway,
		MintModes:    []string{models.MintModeSingle, models.MintModeWhitelist, models.MintModeFree},
		DefaultOffer: cfg.DefaultOfferETH,
		SlotsAhead:   cfg.SlotsAhead,
		Placeholder:  models.PlaceholderImage,
	}}
}

// GET /meta
func (h *MetaHandler) GetMeta(c *fiber.Ctx) error {
	return c.JSON(dto.SuccessResponse{OK: true, Data: h.meta})
}

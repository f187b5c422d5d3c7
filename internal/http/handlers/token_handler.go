package handlers

import (
	"github.com/fellas-token/backend/internal/content"
	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/middleware"
	"github.com/fellas-token/backend/internal/models"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TokenHandler struct {
	mint     *services.MintService
	resolver *content.Resolver
	content  *content.Client
	log      *zap.Logger
}

func NewTokenHandler(mint *services.MintService, resolver *content.Resolver, client *content.Client, log *zap.Logger) *TokenHandler {
	return &TokenHandler{mint: mint, resolver: resolver, content: client, log: log}
}

// GetToken returns one slot.
// GET /tokens/:id
func (h *TokenHandler) GetToken(c *fiber.Ctx) error {
	id, err := parseTokenID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	slot, err := h.mint.Slot(c.UserContext(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: slot})
}

// GetURI returns the URI stored on chain for a minted token.
// GET /tokens/:id/uri
func (h *TokenHandler) GetURI(c *fiber.Ctx) error {
	id, err := parseTokenID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	slot, err := h.mint.Slot(c.UserContext(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	if slot.State == models.SlotStateUnminted {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: "token not minted"})
	}
	uri, err := h.mint.TokenURI(c.UserContext(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: dto.TokenURIResponse{
		TokenID:    id,
		URI:        uri,
		GatewayURL: h.resolver.GatewayURL(uri),
	}})
}

// GetMetadata proxies the token's metadata document from the IPFS gateway.
// GET /tokens/:id/metadata
func (h *TokenHandler) GetMetadata(c *fiber.Ctx) error {
	id, err := parseTokenID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	md, err := h.content.FetchMetadata(c.UserContext(), h.resolver.MetadataURI(id))
	if err != nil {
		h.log.Warn("metadata fetch failed", zap.Uint64("token_id", id), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Error: "metadata unavailable"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: md})
}

// Mint mints one slot from the session wallet.
// POST /tokens/:id/mint
func (h *TokenHandler) Mint(c *fiber.Ctx) error {
	id, err := parseTokenID(c)
	if err != nil {
		return fail(c, h.log, err)
	}
	var req dto.MintRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Mode == "" {
		req.Mode = models.MintModeSingle
	}

	res, err := h.mint.Mint(c.UserContext(), services.MintRequest{
		TokenID: id,
		Mode:    req.Mode,
		Offer:   req.Offer,
		To:      req.To,
		Actor:   middleware.GetOperator(c),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	if !res.OK {
		return txFailed(c, res.TxResult, res)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

// MintMulti mints a contiguous run of slots in one transaction.
// POST /tokens/mint-multi
func (h *TokenHandler) MintMulti(c *fiber.Ctx) error {
	var req dto.MintMultiRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	res, err := h.mint.MintMulti(c.UserContext(), services.MintMultiRequest{
		From:     req.From,
		Quantity: req.Quantity,
		Offer:    req.Offer,
		To:       req.To,
		Actor:    middleware.GetOperator(c),
	})
	if err != nil {
		return fail(c, h.log, err)
	}
	if !res.OK {
		return txFailed(c, res.TxResult, res)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: res})
}

package handlers

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type WalletHandler struct {
	walletService *services.WalletService
	log           *zap.Logger
}

func NewWalletHandler(walletService *services.WalletService, log *zap.Logger) *WalletHandler {
	return &WalletHandler{walletService: walletService, log: log}
}

// GetWallet returns the session wallet address and balance.
// GET /wallet
func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	state, err := h.walletService.Refresh(c.UserContext())
	if err != nil {
		h.log.Warn("wallet refresh failed", zap.Error(err))
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: state})
}

// ConnectWallet unlocks the signer and reads its balance.
// POST /wallet/connect
func (h *WalletHandler) ConnectWallet(c *fiber.Ctx) error {
	state, err := h.walletService.Connect(c.UserContext())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: state})
}

// GetBalance reads the native balance of any address.
// GET /wallet/balance/:address
func (h *WalletHandler) GetBalance(c *fiber.Ctx) error {
	raw := c.Params("address")
	if !common.IsHexAddress(raw) {
		return badRequest(c, "invalid address")
	}
	balance, ok, err := h.walletService.Balance(c.UserContext(), common.HexToAddress(raw))
	if err != nil {
		return fail(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: "wallet not connected", Code: "WALLET_UNAVAILABLE"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: fiber.Map{"address": common.HexToAddress(raw).Hex(), "balance_eth": balance}})
}

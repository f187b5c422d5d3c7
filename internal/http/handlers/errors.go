package handlers

import (
	"errors"
	"strconv"

	"github.com/fellas-token/backend/internal/eth"
	"github.com/fellas-token/backend/internal/http/dto"
	"github.com/fellas-token/backend/internal/middleware"
	"github.com/fellas-token/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// fail maps service errors to responses. Anything unrecognised is a 500 and
// gets logged; the rest are caller mistakes or an absent wallet.
func fail(c *fiber.Ctx, log *zap.Logger, err error) error {
	resp := dto.ErrorResponse{Error: err.Error(), RequestID: middleware.GetRequestID(c)}
	status := fiber.StatusInternalServerError

	switch {
	case errors.Is(err, eth.ErrWalletUnavailable), errors.Is(err, eth.ErrNotConnected):
		status = fiber.StatusServiceUnavailable
		resp.Code = eth.CodeWalletUnavailable
	case errors.Is(err, services.ErrAlreadyMinted):
		status = fiber.StatusConflict
		resp.Code = "ALREADY_MINTED"
	case errors.Is(err, services.ErrInvalidMode),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, eth.ErrInvalidAmount):
		status = fiber.StatusBadRequest
		resp.Code = "INVALID_ARGUMENT"
	default:
		if ce := eth.ClassifyError(err); ce != nil && ce.Code != eth.CodeUnknown {
			status = fiber.StatusBadGateway
			resp.Code, resp.Reason = ce.Code, ce.Reason
		} else {
			log.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
			resp.Error = "internal error"
		}
	}
	return c.Status(status).JSON(resp)
}

// txFailed reports a transaction the chain rejected. A timeout means the
// transaction may still land, so it is accepted rather than failed.
func txFailed(c *fiber.Ctx, res eth.TxResult, data any) error {
	if res.Code == eth.CodeTimeout && res.TxHash != "" {
		return c.Status(fiber.StatusAccepted).JSON(dto.SuccessResponse{OK: false, Data: data})
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
		Error:     "transaction failed",
		Code:      res.Code,
		Reason:    res.Reason,
		TxHash:    res.TxHash,
		RequestID: middleware.GetRequestID(c),
	})
}

func parseTokenID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, services.ErrInvalidToken
	}
	return id, nil
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:     msg,
		Code:      "INVALID_ARGUMENT",
		RequestID: middleware.GetRequestID(c),
	})
}

package handler

import (
	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles the workflow-facing wallet endpoints: the order and
// refund pipelines call these to move money.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Credit handles POST /api/v1/wallets/:customer_id/credit.
func (h *WalletHandler) Credit(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	entry, err := h.walletSvc.Credit(c.Request.Context(), ports.CreditRequest{
		CustomerID:  customerID,
		Amount:      req.Amount,
		Description: req.Description,
		Metadata:    domain.Metadata(req.Metadata),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(entry))
}

// Debit handles POST /api/v1/wallets/:customer_id/debit.
func (h *WalletHandler) Debit(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	entry, err := h.walletSvc.Debit(c.Request.Context(), ports.DebitRequest{
		CustomerID:  customerID,
		Amount:      req.Amount,
		Description: req.Description,
		Metadata:    domain.Metadata(req.Metadata),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(entry))
}

// Refund handles POST /api/v1/wallets/:customer_id/refund. This is the
// handover point from the refund workflow: an already-approved refund is
// credited and the wallet is scored.
func (h *WalletHandler) Refund(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req dto.RefundCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	entry, err := h.walletSvc.CreditRefund(c.Request.Context(), ports.RefundCreditRequest{
		CustomerID:  customerID,
		Amount:      req.Amount,
		OrderRef:    req.OrderRef,
		RefundRef:   req.RefundRef,
		Description: req.Description,
		Metadata:    domain.Metadata(req.Metadata),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ToTransactionResponse(entry))
}

// customerIDParam parses the :customer_id path parameter. On failure it has
// already written the error response.
func customerIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("customer_id"))
	if err != nil {
		response.Error(c, apperror.Validation("customer_id must be a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

package handler

import (
	"strconv"

	"wallet-ledger-service/internal/adapter/http/dto"
	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"
	"wallet-ledger-service/pkg/apperror"
	"wallet-ledger-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler handles the review endpoints used by fraud analysts.
type AdminHandler struct {
	reviewSvc ports.ReviewService
	walletSvc ports.WalletService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(reviewSvc ports.ReviewService, walletSvc ports.WalletService) *AdminHandler {
	return &AdminHandler{
		reviewSvc: reviewSvc,
		walletSvc: walletSvc,
	}
}

// ListFlagged handles GET /api/v1/admin/wallets/flagged.
func (h *AdminHandler) ListFlagged(c *gin.Context) {
	limit := queryInt(c, "limit", 0)

	wallets, err := h.reviewSvc.GetFlaggedWallets(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, dto.ToWalletResponse(&wallets[i]))
	}
	response.OK(c, dto.WalletListResponse{Items: items, Count: len(items)})
}

// GetStatistics handles GET /api/v1/admin/wallets/statistics.
func (h *AdminHandler) GetStatistics(c *gin.Context) {
	stats, err := h.reviewSvc.GetStatistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToStatisticsResponse(stats))
}

// GetWallet handles GET /api/v1/admin/wallets/:customer_id.
func (h *AdminHandler) GetWallet(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	wallet, err := h.reviewSvc.GetWallet(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToWalletResponse(wallet))
}

// ListTransactions handles GET /api/v1/admin/wallets/:customer_id/transactions.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}
	limit := queryInt(c, "limit", 0)

	entries, err := h.reviewSvc.RecentTransactions(c.Request.Context(), customerID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransactionResponse, 0, len(entries))
	for i := range entries {
		items = append(items, dto.ToTransactionResponse(&entries[i]))
	}
	response.OK(c, dto.TransactionListResponse{Items: items, Count: len(items)})
}

// UpdateStatus handles PUT /api/v1/admin/wallets/:customer_id/status.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	var req dto.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.walletSvc.SetStatus(c.Request.Context(), customerID, domain.WalletStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToWalletResponse(wallet))
}

// Unflag handles POST /api/v1/admin/wallets/:customer_id/unflag. The
// suspicious-activity counter is deliberately preserved.
func (h *AdminHandler) Unflag(c *gin.Context) {
	customerID, ok := customerIDParam(c)
	if !ok {
		return
	}

	wallet, err := h.walletSvc.ClearFlag(c.Request.Context(), customerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.ToWalletResponse(wallet))
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

package public

import (
	"strconv"
	"strings"

	"github.com/reeltask/reeltask/internal/cache"
	"github.com/reeltask/reeltask/internal/http/response"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetMyWallet 获取当前用户钱包信息，带短时缓存，余额变动时由服务层失效
func (h *Handler) GetMyWallet(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	cacheKey := cache.WalletAccountKey(uid)
	var cached models.WalletAccount
	if hit, err := cache.GetJSON(c.Request.Context(), cacheKey, &cached); err == nil && hit {
		response.Success(c, &cached)
		return
	}
	account, err := h.WalletService.GetAccount(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "查询钱包失败", err)
		return
	}
	_ = cache.SetJSON(c.Request.Context(), cacheKey, account, cache.WalletAccountTTL)
	response.Success(c, account)
}

// GetMyWalletTransactions 获取当前用户钱包流水
func (h *Handler) GetMyWalletTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	transactions, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uid,
		Type:      strings.TrimSpace(c.Query("type")),
		Direction: strings.TrimSpace(c.Query("direction")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询钱包流水失败", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}

package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/reeltask/reeltask/internal/http/response"
	"github.com/reeltask/reeltask/internal/repository"
	"github.com/reeltask/reeltask/internal/service"

	"github.com/gin-gonic/gin"
)

// RechargeCreateRequest 创建充值订单请求
type RechargeCreateRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	Channel     string `json:"channel" binding:"required"`
	Remark      string `json:"remark"`
}

// GetRechargeConfig 获取可用充值渠道与金额档位
func (h *Handler) GetRechargeConfig(c *gin.Context) {
	response.Success(c, gin.H{
		"channels":     h.RechargeService.Channels(),
		"amount_cents": h.RechargeService.AmountOptions(),
	})
}

// CreateRecharge 创建充值订单
func (h *Handler) CreateRecharge(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req RechargeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	result, err := h.RechargeService.CreateOrder(c.Request.Context(), service.RechargeCreateInput{
		UserID:      uid,
		AmountCents: req.AmountCents,
		Channel:     strings.TrimSpace(req.Channel),
		ClientIP:    c.ClientIP(),
		Remark:      strings.TrimSpace(req.Remark),
	})
	if err != nil {
		respondWithMappedError(c, err, rechargeCreateErrorRules, response.CodeInternal, "创建充值订单失败")
		return
	}
	response.Success(c, gin.H{
		"order":        result.Order,
		"presentation": result.Presentation,
	})
}

// GetMyRechargeOrder 查询当前用户充值订单详情
func (h *Handler) GetMyRechargeOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	outTradeNo := strings.TrimSpace(c.Param("out_trade_no"))
	order, err := h.RechargeService.GetOrder(c.Request.Context(), uid, outTradeNo)
	if err != nil {
		if errors.Is(err, service.ErrRechargeOrderNotFound) {
			respondError(c, response.CodeNotFound, "充值订单不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "查询充值订单失败", err)
		return
	}
	response.Success(c, order)
}

// GetMyRechargeOrders 查询当前用户充值订单列表
func (h *Handler) GetMyRechargeOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.RechargeService.ListOrders(repository.RechargeOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
		Channel:  strings.TrimSpace(c.Query("channel")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询充值订单失败", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

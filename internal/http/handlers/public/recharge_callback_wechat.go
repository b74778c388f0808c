package public

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WechatCallback 微信支付异步通知入口。应答非 2xx 时微信会重发通知。
func (h *Handler) WechatCallback(c *gin.Context) {
	log := requestLog(c)
	log.Infow("wechat_callback_received",
		"client_ip", c.ClientIP(),
		"wechatpay_serial", strings.TrimSpace(c.GetHeader("Wechatpay-Serial")),
		"wechatpay_timestamp", strings.TrimSpace(c.GetHeader("Wechatpay-Timestamp")),
	)

	if h.WechatClient == nil {
		log.Warnw("wechat_callback_channel_disabled")
		respondWechatCallback(c, false)
		return
	}
	conf, err := h.WechatClient.ParseNotify(c.Request.Context(), c.Request)
	if err != nil {
		log.Warnw("wechat_callback_verify_failed", "error", err)
		respondWechatCallback(c, false)
		return
	}

	order, err := h.RechargeService.Settle(conf)
	if err != nil {
		log.Warnw("wechat_callback_settle_failed", "out_trade_no", conf.OutTradeNo, "error", err)
		respondWechatCallback(c, false)
		return
	}
	log.Infow("wechat_callback_processed",
		"out_trade_no", order.OutTradeNo,
		"status", order.Status,
	)
	respondWechatCallback(c, true)
}

func respondWechatCallback(c *gin.Context, success bool) {
	if success {
		c.JSON(http.StatusOK, gin.H{
			"code":    "SUCCESS",
			"message": "成功",
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "FAIL",
		"message": "失败",
	})
}

package public

import (
	"net/http"
	"net/url"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/payment/alipay"

	"github.com/gin-gonic/gin"
)

// AlipayCallback 支付宝异步通知入口。验签失败或结算失败时应答 fail，
// 支付宝会按退避策略重发通知。
func (h *Handler) AlipayCallback(c *gin.Context) {
	log := requestLog(c)
	form, err := parseCallbackForm(c)
	if err != nil {
		log.Warnw("alipay_callback_form_parse_failed", "error", err)
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}
	outTradeNo := getFirstValue(form, "out_trade_no")
	log.Infow("alipay_callback_received",
		"client_ip", c.ClientIP(),
		"out_trade_no", outTradeNo,
		"trade_no", getFirstValue(form, "trade_no"),
		"trade_status", getFirstValue(form, "trade_status"),
	)

	client := h.alipayNotifyClient()
	if client == nil {
		log.Warnw("alipay_callback_channel_disabled")
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}
	conf, err := client.VerifyNotify(url.Values(form))
	if err != nil {
		log.Warnw("alipay_callback_verify_failed", "out_trade_no", outTradeNo, "error", err)
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}

	order, err := h.RechargeService.Settle(conf)
	if err != nil {
		log.Warnw("alipay_callback_settle_failed", "out_trade_no", outTradeNo, "error", err)
		c.String(http.StatusOK, constants.AlipayCallbackFail)
		return
	}
	log.Infow("alipay_callback_processed",
		"out_trade_no", order.OutTradeNo,
		"status", order.Status,
	)
	c.String(http.StatusOK, constants.AlipayCallbackSuccess)
}

// 支付宝 PC 与 WAP 共用商户凭据，验签用任一实例即可
func (h *Handler) alipayNotifyClient() *alipay.Client {
	if h.AlipayPC != nil {
		return h.AlipayPC
	}
	return h.AlipayWAP
}

func parseCallbackForm(c *gin.Context) (map[string][]string, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	if len(c.Request.PostForm) > 0 {
		return c.Request.PostForm, nil
	}
	return c.Request.Form, nil
}

func getFirstValue(form map[string][]string, key string) string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

package public

import (
	"errors"

	"github.com/reeltask/reeltask/internal/http/response"
	"github.com/reeltask/reeltask/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var rechargeCreateErrorRules = []mappedHandlerError{
	{target: service.ErrRechargeAmountInvalid, code: response.CodeBadRequest, msg: "充值金额不在允许档位内"},
	{target: service.ErrRechargeChannelInvalid, code: response.CodeBadRequest, msg: "充值渠道无效"},
	// 渠道未配置或渠道侧故障属于服务暂不可用，与请求参数错误区分开
	{target: service.ErrRechargeChannelUnavailable, code: response.CodeUnavailable, msg: "充值渠道暂不可用"},
	{target: service.ErrRechargeProviderFailed, code: response.CodeUnavailable, msg: "支付渠道下单失败"},
}

var taskPublishErrorRules = []mappedHandlerError{
	{target: service.ErrTaskNotFound, code: response.CodeNotFound, msg: "任务不存在"},
	{target: service.ErrTaskNotOwned, code: response.CodeForbidden, msg: "无权操作该任务"},
	{target: service.ErrTaskStatusInvalid, code: response.CodeBadRequest, msg: "任务状态不允许发布"},
	{target: service.ErrWalletInsufficientBalance, code: response.CodeBadRequest, msg: "钱包余额不足"},
}

package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reeltask/reeltask/internal/cache"
	"github.com/reeltask/reeltask/internal/config"
	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/payment"
	"github.com/reeltask/reeltask/internal/payment/alipay"
	"github.com/reeltask/reeltask/internal/payment/mock"
	"github.com/reeltask/reeltask/internal/payment/wechat"
	"github.com/reeltask/reeltask/internal/queue"
	"github.com/reeltask/reeltask/internal/repository"
	"github.com/reeltask/reeltask/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo     repository.UserRepository
	WalletRepo   repository.WalletRepository
	RechargeRepo repository.RechargeRepository
	TaskRepo     repository.TaskRepository

	// 支付渠道
	Registry     *payment.Registry
	AlipayPC     *alipay.Client
	AlipayWAP    *alipay.Client
	WechatClient *wechat.Client

	// Services
	UserAuthService *service.UserAuthService
	WalletService   *service.WalletService
	RechargeService *service.RechargeService
	TaskService     *service.TaskService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initPaymentChannels()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.RechargeRepo = repository.NewRechargeRepository(db)
	c.TaskRepo = repository.NewTaskRepository(db)
}

func (c *Container) initPaymentChannels() {
	c.Registry = payment.NewRegistry()
	payCfg := c.Config.Payment
	baseURL := strings.TrimRight(strings.TrimSpace(payCfg.BaseURL), "/")

	if payCfg.Alipay.Enabled {
		alipayCfg := alipay.Config{
			AppID:           payCfg.Alipay.AppID,
			PrivateKey:      payCfg.Alipay.PrivateKey,
			AlipayPublicKey: payCfg.Alipay.AlipayPublicKey,
			Gateway:         payCfg.Alipay.Gateway,
			NotifyURL:       fmt.Sprintf("%s/api/v1/recharge/callback/alipay", baseURL),
			ReturnURL:       payCfg.Alipay.ReturnURL,
		}
		pc, err := alipay.New(alipayCfg, constants.ChannelAlipayPC)
		if err != nil {
			logger.Errorw("provider_init_alipay_pc_failed", "error", err)
		} else {
			c.AlipayPC = pc
			c.Registry.Register(pc)
		}
		wap, err := alipay.New(alipayCfg, constants.ChannelAlipayWAP)
		if err != nil {
			logger.Errorw("provider_init_alipay_wap_failed", "error", err)
		} else {
			c.AlipayWAP = wap
			c.Registry.Register(wap)
		}
	}

	if payCfg.Wechat.Enabled {
		wx, err := wechat.New(context.Background(), wechat.Config{
			AppID:         payCfg.Wechat.AppID,
			MchID:         payCfg.Wechat.MchID,
			MchSerialNo:   payCfg.Wechat.MchSerialNo,
			MchPrivateKey: payCfg.Wechat.MchPrivateKey,
			APIV3Key:      payCfg.Wechat.APIV3Key,
			NotifyURL:     fmt.Sprintf("%s/api/v1/recharge/callback/wechat", baseURL),
		})
		if err != nil {
			logger.Errorw("provider_init_wechat_failed", "error", err)
		} else {
			c.WechatClient = wx
			c.Registry.Register(wx)
		}
	}

	if payCfg.Mock.Enabled {
		mockClient, err := mock.New(baseURL)
		if err != nil {
			logger.Errorw("provider_init_mock_failed", "error", err)
		} else {
			c.Registry.Register(mockClient)
		}
	}

	logger.Infow("provider_payment_channels_ready", "channels", c.Registry.Channels())
}

func (c *Container) initServices() {
	db := models.DB
	c.UserAuthService = service.NewUserAuthService(c.Config)
	c.WalletService = service.NewWalletService(db, c.WalletRepo)
	c.RechargeService = service.NewRechargeService(
		db,
		c.RechargeRepo,
		c.WalletService,
		c.Registry,
		c.QueueClient,
		time.Duration(c.Config.Wallet.RechargeExpireMinutes)*time.Minute,
	)
	if c.WechatClient != nil {
		c.RechargeService.RegisterQuerier(constants.ChannelWxNative, c.WechatClient)
	}
	c.TaskService = service.NewTaskService(db, c.TaskRepo, c.WalletService, c.Config.Wallet.PublishFeeCents)
}

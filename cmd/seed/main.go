package main

import (
	"time"

	"github.com/reeltask/reeltask/internal/config"
	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/service"

	"golang.org/x/crypto/bcrypt"
)

type demoUser struct {
	Email        string
	Password     string
	DisplayName  string
	BalanceCents int64
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	demoUsers := []demoUser{
		{Email: "alice@example.com", Password: "alice123456", DisplayName: "Alice", BalanceCents: 5000},
		{Email: "bob@example.com", Password: "bob123456", DisplayName: "Bob", BalanceCents: 0},
	}

	authSvc := service.NewUserAuthService(cfg)

	for _, demo := range demoUsers {
		var user models.User
		if err := models.DB.Where("email = ?", demo.Email).First(&user).Error; err == nil {
			stdLog.Printf("用户已存在: %s", demo.Email)
		} else {
			hash, err := bcrypt.GenerateFromPassword([]byte(demo.Password), bcrypt.DefaultCost)
			if err != nil {
				stdLog.Fatalf("密码哈希失败: %v", err)
			}
			user = models.User{
				Email:        demo.Email,
				PasswordHash: string(hash),
				DisplayName:  demo.DisplayName,
				Status:       constants.UserStatusActive,
			}
			if err := models.DB.Create(&user).Error; err != nil {
				stdLog.Fatalf("创建用户失败 %s: %v", demo.Email, err)
			}
			stdLog.Printf("创建用户: %s (id=%d)", demo.Email, user.ID)
		}

		var account models.WalletAccount
		if err := models.DB.Where("user_id = ?", user.ID).First(&account).Error; err != nil {
			account = models.WalletAccount{
				UserID:       user.ID,
				BalanceCents: demo.BalanceCents,
				Currency:     constants.CurrencyCNY,
			}
			if err := models.DB.Create(&account).Error; err != nil {
				stdLog.Fatalf("创建钱包账户失败 %s: %v", demo.Email, err)
			}
			if demo.BalanceCents > 0 {
				txn := models.WalletTransaction{
					AccountID:          account.ID,
					UserID:             user.ID,
					Type:               constants.WalletTxnTypeRecharge,
					Direction:          constants.WalletTxnDirectionIn,
					AmountCents:        demo.BalanceCents,
					BalanceBeforeCents: 0,
					BalanceAfterCents:  demo.BalanceCents,
					Currency:           constants.CurrencyCNY,
					Reference:          "seed:" + demo.Email,
					Remark:             "演示账户初始余额",
				}
				if err := models.DB.Create(&txn).Error; err != nil {
					stdLog.Fatalf("创建初始流水失败 %s: %v", demo.Email, err)
				}
			}
			stdLog.Printf("创建钱包账户: %s 余额 %d 分", demo.Email, demo.BalanceCents)
		} else {
			stdLog.Printf("钱包账户已存在: %s", demo.Email)
		}

		token, expiresAt, err := authSvc.GenerateUserJWT(&user)
		if err != nil {
			stdLog.Printf("警告: 生成演示 token 失败 %s: %v", demo.Email, err)
			continue
		}
		stdLog.Printf("演示 token (%s, 过期 %s):\n%s", demo.Email, expiresAt.Format(time.RFC3339), token)
	}

	seedDemoTask(stdLog.Printf)
}

// seedDemoTask 为第一个演示用户创建一条草稿任务
func seedDemoTask(printf func(format string, v ...interface{})) {
	var user models.User
	if err := models.DB.Where("email = ?", "alice@example.com").First(&user).Error; err != nil {
		return
	}
	var count int64
	if err := models.DB.Model(&models.Task{}).Where("creator_id = ?", user.ID).Count(&count).Error; err != nil || count > 0 {
		return
	}
	task := models.Task{
		CreatorID:   user.ID,
		Title:       "产品开箱短视频拍摄",
		Description: "拍摄一条 60 秒以内的产品开箱视频，横屏 1080p。",
		Status:      constants.TaskStatusDraft,
	}
	if err := models.DB.Create(&task).Error; err != nil {
		printf("警告: 创建演示任务失败: %v", err)
		return
	}
	printf("创建演示任务: %s (id=%d)", task.Title, task.ID)
}

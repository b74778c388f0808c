package service

import (
	"context"
	"strings"
	"time"

	"github.com/reeltask/reeltask/internal/cache"
	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/repository"

	"gorm.io/gorm"
)

const (
	walletDefaultCurrency = constants.CurrencyCNY
)

// WalletService 钱包服务，负责余额账户与流水账本
type WalletService struct {
	db         *gorm.DB
	walletRepo repository.WalletRepository
}

// WalletCreditInput 事务内入账输入
type WalletCreditInput struct {
	UserID      uint
	AmountCents int64
	Currency    string
	TxnType     string
	Reference   string
	Remark      string
}

// WalletDebitInput 事务内扣款输入
type WalletDebitInput struct {
	UserID      uint
	AmountCents int64
	Currency    string
	TxnType     string
	Reference   string
	Remark      string
}

// NewWalletService 创建钱包服务
func NewWalletService(db *gorm.DB, walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{db: db, walletRepo: walletRepo}
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	return s.getOrCreateAccount(userID)
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// CreditInTx 在事务内执行钱包入账并写入唯一参考号流水。
// 相同参考号重复入账时直接返回已有流水，不再变更余额。
func (s *WalletService) CreditInTx(tx *gorm.DB, input WalletCreditInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	if input.AmountCents <= 0 {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	txnType := strings.TrimSpace(input.TxnType)
	if txnType == "" {
		txnType = constants.WalletTxnTypeRecharge
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := repo.GetAccountByUserID(input.UserID)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.BalanceCents
	after := before + input.AmountCents
	rows, err := repo.CreditBalance(input.UserID, input.AmountCents)
	if err != nil {
		return nil, nil, err
	}
	if rows == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	account.BalanceCents = after
	account.UpdatedAt = now

	txn := &models.WalletTransaction{
		UserID:             input.UserID,
		AccountID:          account.ID,
		Type:               txnType,
		Direction:          constants.WalletTxnDirectionIn,
		AmountCents:        input.AmountCents,
		BalanceBeforeCents: before,
		BalanceAfterCents:  after,
		Currency:           normalizeWalletCurrency(input.Currency),
		Reference:          reference,
		Remark:             cleanWalletRemark(input.Remark, "钱包入账"),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	return account, txn, nil
}

// DebitInTx 在事务内执行钱包扣款并写入唯一参考号流水。
// 余额不足时返回 ErrWalletInsufficientBalance，余额永不为负。
func (s *WalletService) DebitInTx(tx *gorm.DB, input WalletDebitInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	if tx == nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	if input.UserID == 0 {
		return nil, nil, ErrWalletAccountNotFound
	}
	if input.AmountCents <= 0 {
		return nil, nil, ErrWalletInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	txnType := strings.TrimSpace(input.TxnType)
	if txnType == "" {
		txnType = constants.WalletTxnTypePublishFee
	}
	now := time.Now()
	repo := s.walletRepo.WithTx(tx)

	exists, err := repo.GetTransactionByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := repo.GetAccountByUserID(input.UserID)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.BalanceCents
	rows, err := repo.DebitBalance(input.UserID, input.AmountCents)
	if err != nil {
		return nil, nil, err
	}
	if rows == 0 {
		return nil, nil, ErrWalletInsufficientBalance
	}
	after := before - input.AmountCents
	account.BalanceCents = after
	account.UpdatedAt = now

	txn := &models.WalletTransaction{
		UserID:             input.UserID,
		AccountID:          account.ID,
		Type:               txnType,
		Direction:          constants.WalletTxnDirectionOut,
		AmountCents:        input.AmountCents,
		BalanceBeforeCents: before,
		BalanceAfterCents:  after,
		Currency:           normalizeWalletCurrency(input.Currency),
		Reference:          reference,
		Remark:             cleanWalletRemark(input.Remark, "钱包扣款"),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, nil, ErrWalletTransactionCreateFailed
	}
	return account, txn, nil
}

// Credit 独立事务入账
func (s *WalletService) Credit(input WalletCreditInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	var account *models.WalletAccount
	var txn *models.WalletTransaction
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, txn, err = s.CreditInTx(tx, input)
		return err
	}); err != nil {
		return nil, nil, err
	}
	s.InvalidateAccountCache(input.UserID)
	return account, txn, nil
}

// Debit 独立事务扣款
func (s *WalletService) Debit(input WalletDebitInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	var account *models.WalletAccount
	var txn *models.WalletTransaction
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, txn, err = s.DebitInTx(tx, input)
		return err
	}); err != nil {
		return nil, nil, err
	}
	s.InvalidateAccountCache(input.UserID)
	return account, txn, nil
}

// InvalidateAccountCache 余额变动提交后清理账户缓存。
// 事务内入账/扣款的调用方需要在提交后自行调用。
func (s *WalletService) InvalidateAccountCache(userID uint) {
	if userID == 0 {
		return
	}
	if err := cache.Del(context.Background(), cache.WalletAccountKey(userID)); err != nil {
		logger.SW("user_id", userID).Warnw("wallet_cache_invalidate_failed", "error", err)
	}
}

func (s *WalletService) getOrCreateAccount(userID uint) (*models.WalletAccount, error) {
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.WalletAccount{
		UserID:    userID,
		Currency:  walletDefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		created, queryErr := s.walletRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func (s *WalletService) ensureAccountForUpdate(repo *repository.GormWalletRepository, userID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:    userID,
		Currency:  walletDefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrWalletAccountCreateFailed
	}
	return account, nil
}

func normalizeWalletCurrency(currency string) string {
	normalized := strings.ToUpper(strings.TrimSpace(currency))
	if normalized == "" {
		return walletDefaultCurrency
	}
	return normalized
}

func cleanWalletRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	return remark
}

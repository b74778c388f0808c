package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/repository"

	"gorm.io/gorm"
)

// TaskService 任务服务，发布任务时从钱包扣除发布手续费
type TaskService struct {
	db              *gorm.DB
	taskRepo        repository.TaskRepository
	walletSvc       *WalletService
	publishFeeCents int64
}

// TaskCreateInput 创建任务输入
type TaskCreateInput struct {
	CreatorID   uint
	Title       string
	Description string
}

// NewTaskService 创建任务服务
func NewTaskService(db *gorm.DB, taskRepo repository.TaskRepository, walletSvc *WalletService, publishFeeCents int64) *TaskService {
	return &TaskService{
		db:              db,
		taskRepo:        taskRepo,
		walletSvc:       walletSvc,
		publishFeeCents: publishFeeCents,
	}
}

// CreateTask 创建草稿任务
func (s *TaskService) CreateTask(input TaskCreateInput) (*models.Task, error) {
	if input.CreatorID == 0 {
		return nil, ErrTaskCreateFailed
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTaskTitleRequired
	}
	now := time.Now()
	task := &models.Task{
		CreatorID:   input.CreatorID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      constants.TaskStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, ErrTaskCreateFailed
	}
	return task, nil
}

// GetTask 查询任务
func (s *TaskService) GetTask(id uint) (*models.Task, error) {
	if id == 0 {
		return nil, ErrTaskNotFound
	}
	task, err := s.taskRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

// ListTasks 查询任务列表
func (s *TaskService) ListTasks(filter repository.TaskListFilter) ([]models.Task, int64, error) {
	return s.taskRepo.List(filter)
}

// PublishTask 发布任务：事务内扣除发布手续费并翻转任务状态。
// 余额不足时任务保持草稿状态，不产生任何流水。
func (s *TaskService) PublishTask(userID uint, taskID uint) (*models.Task, error) {
	if userID == 0 || taskID == 0 {
		return nil, ErrTaskNotFound
	}
	var result *models.Task
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.taskRepo.WithTx(tx)
		task, err := repo.GetByIDForUpdate(taskID)
		if err != nil {
			return err
		}
		if task == nil {
			return ErrTaskNotFound
		}
		if task.CreatorID != userID {
			return ErrTaskNotOwned
		}
		if task.Status == constants.TaskStatusPublished {
			result = task
			return nil
		}
		if task.Status != constants.TaskStatusDraft {
			return ErrTaskStatusInvalid
		}

		if s.publishFeeCents > 0 {
			if _, _, err := s.walletSvc.DebitInTx(tx, WalletDebitInput{
				UserID:      userID,
				AmountCents: s.publishFeeCents,
				TxnType:     constants.WalletTxnTypePublishFee,
				Reference:   buildTaskPublishReference(task.ID),
				Remark:      "任务发布手续费",
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		task.Status = constants.TaskStatusPublished
		task.PublishFeeCents = s.publishFeeCents
		task.PublishedAt = &now
		task.UpdatedAt = now
		if err := repo.Update(task); err != nil {
			return ErrTaskPublishFailed
		}
		result = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.PublishFeeCents > 0 {
		s.walletSvc.InvalidateAccountCache(userID)
	}
	logger.SW("task_id", result.ID, "user_id", userID).Infow("task_published", "fee_cents", result.PublishFeeCents)
	return result, nil
}

func buildTaskPublishReference(taskID uint) string {
	return fmt.Sprintf("task:%d:publish_fee", taskID)
}

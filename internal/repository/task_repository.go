package repository

import (
	"errors"

	"github.com/reeltask/reeltask/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskRepository 任务数据访问接口
type TaskRepository interface {
	Create(task *models.Task) error
	Update(task *models.Task) error
	GetByID(id uint) (*models.Task, error)
	GetByIDForUpdate(id uint) (*models.Task, error)
	List(filter TaskListFilter) ([]models.Task, int64, error)
	WithTx(tx *gorm.DB) *GormTaskRepository
}

// GormTaskRepository GORM 任务仓储实现
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务仓储
func NewTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// WithTx 绑定事务
func (r *GormTaskRepository) WithTx(tx *gorm.DB) *GormTaskRepository {
	if tx == nil {
		return r
	}
	return &GormTaskRepository{db: tx}
}

// Create 创建任务
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// Update 更新任务
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// GetByID 按 ID 查询任务
func (r *GormTaskRepository) GetByID(id uint) (*models.Task, error) {
	if id == 0 {
		return nil, nil
	}
	var task models.Task
	if err := r.db.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// GetByIDForUpdate 按 ID 加锁查询任务
func (r *GormTaskRepository) GetByIDForUpdate(id uint) (*models.Task, error) {
	if id == 0 {
		return nil, nil
	}
	var task models.Task
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

// List 分页查询任务
func (r *GormTaskRepository) List(filter TaskListFilter) ([]models.Task, int64, error) {
	query := r.db.Model(&models.Task{})
	if filter.CreatorID != 0 {
		query = query.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var tasks []models.Task
	if err := query.Order("id desc").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

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

// TaskCreateRequest 创建任务请求
type TaskCreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateTask 创建草稿任务
func (h *Handler) CreateTask(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	task, err := h.TaskService.CreateTask(service.TaskCreateInput{
		CreatorID:   uid,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, service.ErrTaskTitleRequired) {
			respondError(c, response.CodeBadRequest, "任务标题不能为空", nil)
			return
		}
		respondError(c, response.CodeInternal, "创建任务失败", err)
		return
	}
	response.Success(c, task)
}

// GetMyTasks 查询当前用户任务列表
func (h *Handler) GetMyTasks(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	tasks, total, err := h.TaskService.ListTasks(repository.TaskListFilter{
		Page:      page,
		PageSize:  pageSize,
		CreatorID: uid,
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询任务失败", err)
		return
	}
	response.SuccessWithPage(c, tasks, response.BuildPagination(page, pageSize, total))
}

// PublishTask 发布任务并扣除发布手续费
func (h *Handler) PublishTask(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	taskID, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || taskID == 0 {
		respondError(c, response.CodeBadRequest, "任务ID无效", nil)
		return
	}
	task, err := h.TaskService.PublishTask(uid, uint(taskID))
	if err != nil {
		respondWithMappedError(c, err, taskPublishErrorRules, response.CodeInternal, "发布任务失败")
		return
	}
	response.Success(c, task)
}

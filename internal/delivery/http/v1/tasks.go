package v1

import (
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-tracker/internal/models"
)

type taskResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     time.Time       `json:"dueDate"`
	Status      models.Status   `json:"status"`
	UserID      int64           `json:"userId"`
}

func newTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		Status:      task.Status,
		UserID:      task.UserID,
	}
}

// taskRequest is the full record sent by POST and PUT. Missing enums
// decode as their first value, Low and Pending.
type taskRequest struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title" binding:"required"`
	Description *string         `json:"description"`
	Priority    models.Priority `json:"priority"`
	DueDate     *time.Time      `json:"dueDate" binding:"required"`
	Status      models.Status   `json:"status"`
	UserID      int64           `json:"userId"`
}

func (r *taskRequest) toModel() *models.Task {
	task := &models.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		UserID:      r.UserID,
	}
	if r.DueDate != nil {
		task.DueDate = *r.DueDate
	}
	return task
}

type listTasksRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"pageSize,default=10"`
	SortBy   string `form:"sortBy"`
	SortDir  string `form:"sortDir,default=asc"`
	Search   string `form:"search"`
}

type listTasksResponse struct {
	Total int            `json:"total"`
	Tasks []taskResponse `json:"tasks"`
}

type statusCountResponse struct {
	Status models.Status `json:"status"`
	Count  int           `json:"count"`
}

func (h *handlerImpl) HandleGetTask(c *gin.Context) {
	id, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	task, err := h.tasks.GetTask(c, id)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	var req listTasksRequest
	err := c.ShouldBindQuery(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind query")
		abort(c, newBadRequestError(errInvalidQuery.Error()))
		return
	}

	query := models.NewTaskQuery(req.Page, req.PageSize, req.SortBy, req.SortDir, req.Search)
	result, err := h.tasks.ListTasks(c, query)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := listTasksResponse{
		Total: result.Total,
		Tasks: make([]taskResponse, len(result.Tasks)),
	}
	for i, task := range result.Tasks {
		response.Tasks[i] = newTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBindingError(err, errInvalidRequestBody))
		return
	}

	task := req.toModel()
	if task.UserID == 0 {
		task.UserID, _ = authenticatedUserID(c)
	}

	created, err := h.tasks.CreateTask(c, task)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Header("Location", path.Join(c.Request.URL.Path, strconv.FormatInt(created.ID, 10)))
	c.JSON(http.StatusCreated, newTaskResponse(created))
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	id, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	var req taskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBindingError(err, errInvalidRequestBody))
		return
	}

	_, err = h.tasks.UpdateTask(c, id, req.toModel())
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	id, ok := h.taskIDParam(c)
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, id)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handlerImpl) HandleGetStatusSummary(c *gin.Context) {
	summary, err := h.tasks.StatusSummary(c)
	if err != nil {
		abort(c, newServiceError(err))
		return
	}

	response := make([]statusCountResponse, len(summary))
	for i, sc := range summary {
		response[i] = statusCountResponse{
			Status: sc.Status,
			Count:  sc.Count,
		}
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) taskIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("id", c.Param("id")).
			Msg("invalid task id")
		abort(c, newBadRequestError(errInvalidTaskID.Error()))
		return 0, false
	}
	return id, true
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
	"github.com/planted/internal/service"
	"github.com/planted/internal/view"
)

// ShowCarePage 渲染养护任务页：按日期分组的任务加当前天气
// 天气拉取失败时降级为无天气展示，不阻塞任务列表
func (a *API) ShowCarePage(c *gin.Context) {
	filter := c.DefaultQuery("range", service.CareFilterWeek)
	today := dateutil.Normalize(time.Now())

	groups, err := a.care.Schedule(filter, today)
	if err != nil {
		status := http.StatusInternalServerError
		message := "获取养护任务失败"
		if errors.Is(err, service.ErrUnknownCareFilter) {
			status = http.StatusBadRequest
			message = "无效的时间范围"
		}
		a.RenderHTML(c, status, "care.html", gin.H{
			"title": "养护任务",
			"error": message,
		})
		return
	}

	data := gin.H{
		"title":  "养护任务",
		"groups": groups,
		"filter": filter,
		"today":  today,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	lat, lon := a.coordinates(c)
	if weather, err := a.weather.Current(ctx, lat, lon); err == nil {
		data["weather"] = weather
	} else {
		c.Error(err)
	}

	a.RenderHTML(c, http.StatusOK, "care.html", data)
}

// ListCareTasks 返回分组后的养护任务 JSON
func (a *API) ListCareTasks(c *gin.Context) {
	filter := c.DefaultQuery("range", service.CareFilterWeek)
	today := dateutil.Normalize(time.Now())

	groups, err := a.care.Schedule(filter, today)
	if err != nil {
		if errors.Is(err, service.ErrUnknownCareFilter) {
			respondError(c, http.StatusBadRequest, "无效的时间范围")
			return
		}
		respondError(c, http.StatusInternalServerError, "获取养护任务失败")
		return
	}

	serialized := make([]gin.H, 0, len(groups))
	for _, group := range groups {
		tasks := make([]gin.H, 0, len(group.Tasks))
		for _, item := range group.Tasks {
			payload := careTaskToPayload(item.Task)
			payload["plant_name"] = item.PlantName
			payload["plot_name"] = item.PlotName
			payload["status"] = string(item.Status)
			payload["overdue_days"] = item.OverdueDays
			payload["icon"] = view.TaskIcon(item.Task.TaskType)
			tasks = append(tasks, payload)
		}
		serialized = append(serialized, gin.H{
			"label": group.Label,
			"date":  group.Date.Format("2006-01-02"),
			"tasks": tasks,
		})
	}

	c.JSON(http.StatusOK, gin.H{"range": filter, "groups": serialized})
}

// CompleteCareTask 完成一条任务并返回后继任务
func (a *API) CompleteCareTask(c *gin.Context) {
	taskID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	today := dateutil.Normalize(time.Now())
	completed, next, err := a.care.Complete(taskID, today)
	if err != nil {
		handleCareError(c, err)
		return
	}

	payload := gin.H{"task": careTaskToPayload(*completed)}
	if next != nil {
		payload["next"] = careTaskToPayload(*next)
	}
	c.JSON(http.StatusOK, payload)
}

func careTaskToPayload(task db.CareTask) gin.H {
	payload := gin.H{
		"id":              task.ID,
		"planted_item_id": task.PlantedItemID,
		"task_type":       string(task.TaskType),
		"due_date":        task.DueDate.Format("2006-01-02"),
		"notes":           task.Notes,
	}
	if task.CompletedAt != nil {
		payload["completed_at"] = task.CompletedAt.Format("2006-01-02")
	}
	return payload
}

func handleCareError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		respondError(c, http.StatusNotFound, "任务不存在")
	case errors.Is(err, service.ErrTaskAlreadyCompleted):
		respondError(c, http.StatusConflict, "任务已完成，不能重复打卡")
	case errors.Is(err, service.ErrPlantedItemNotFound):
		respondError(c, http.StatusNotFound, "种植记录不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}

package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
	"github.com/planted/internal/service"
)

type plotPayload struct {
	Name     string `json:"name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Location string `json:"location"`
}

type plantingPayload struct {
	PlantID     uint   `json:"plant_id"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes"`
	DatePlanted string `json:"date_planted"` // 2006-01-02，可选
}

// ShowPlotList 渲染园地列表页
func (a *API) ShowPlotList(c *gin.Context) {
	plots, err := a.plots.List()
	if err != nil {
		a.RenderHTML(c, http.StatusInternalServerError, "plot_list.html", gin.H{
			"title": "园地管理",
			"error": "获取园地列表失败",
		})
		return
	}

	a.RenderHTML(c, http.StatusOK, "plot_list.html", gin.H{
		"title": "园地管理",
		"plots": plots,
	})
}

// ShowPlotDetail 渲染园地网格与种植详情页
func (a *API) ShowPlotDetail(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.RenderHTML(c, http.StatusNotFound, "plot_list.html", gin.H{"title": "园地管理", "error": "园地不存在"})
		return
	}

	plot, err := a.plots.Get(id)
	if err != nil {
		a.RenderHTML(c, http.StatusNotFound, "plot_list.html", gin.H{"title": "园地管理", "error": "园地不存在"})
		return
	}

	items, err := a.plots.Items(id)
	if err != nil {
		a.RenderHTML(c, http.StatusInternalServerError, "plot_detail.html", gin.H{
			"title": plot.Name,
			"plot":  plot,
			"error": "获取种植记录失败",
		})
		return
	}

	plants, err := a.plants.List(service.PlantFilter{})
	if err != nil {
		c.Error(err)
	}

	a.RenderHTML(c, http.StatusOK, "plot_detail.html", gin.H{
		"title":  plot.Name,
		"plot":   plot,
		"items":  items,
		"plants": plants,
	})
}

// ListPlots 返回园地列表 JSON
func (a *API) ListPlots(c *gin.Context) {
	plots, err := a.plots.List()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取园地列表失败")
		return
	}

	items := make([]gin.H, 0, len(plots))
	for _, plot := range plots {
		items = append(items, plotToPayload(plot))
	}
	c.JSON(http.StatusOK, gin.H{"plots": items})
}

// GetPlot 返回园地详情及其种植
func (a *API) GetPlot(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的园地ID")
		return
	}

	plot, err := a.plots.Get(id)
	if err != nil {
		handlePlotError(c, err)
		return
	}

	items, err := a.plots.Items(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取种植记录失败")
		return
	}

	serialized := make([]gin.H, 0, len(items))
	for _, item := range items {
		serialized = append(serialized, plantedItemToPayload(item))
	}

	c.JSON(http.StatusOK, gin.H{"plot": plotToPayload(*plot), "items": serialized})
}

// CreatePlot 创建园地
func (a *API) CreatePlot(c *gin.Context) {
	input, ok := parsePlotInput(c)
	if !ok {
		return
	}

	plot, err := a.plots.Create(input)
	if err != nil {
		handlePlotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plot": plotToPayload(*plot)})
}

// UpdatePlot 更新园地
func (a *API) UpdatePlot(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的园地ID")
		return
	}

	input, ok := parsePlotInput(c)
	if !ok {
		return
	}

	plot, err := a.plots.Update(id, input)
	if err != nil {
		handlePlotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plot": plotToPayload(*plot)})
}

// DeletePlot 删除园地及其种植与任务
func (a *API) DeletePlot(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的园地ID")
		return
	}

	if err := a.plots.Delete(id); err != nil {
		handlePlotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// PlantInPlot 在园地指定格子种下植物并播种初始任务
func (a *API) PlantInPlot(c *gin.Context) {
	plotID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的园地ID")
		return
	}

	var payload plantingPayload
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	} else {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return
	}

	input := service.PlantingInput{
		PlotID:   plotID,
		PlantID:  payload.PlantID,
		X:        payload.X,
		Y:        payload.Y,
		Quantity: payload.Quantity,
		Notes:    payload.Notes,
	}
	if payload.DatePlanted != "" {
		planted, err := time.Parse("2006-01-02", payload.DatePlanted)
		if err != nil {
			respondError(c, http.StatusBadRequest, "无效的种植日期")
			return
		}
		input.DatePlanted = planted
	}

	today := dateutil.Normalize(time.Now())
	item, tasks, err := a.plots.PlantItem(input, today)
	if err != nil {
		handlePlotError(c, err)
		return
	}

	serializedTasks := make([]gin.H, 0, len(tasks))
	for _, task := range tasks {
		serializedTasks = append(serializedTasks, careTaskToPayload(task))
	}

	c.JSON(http.StatusOK, gin.H{
		"item":  plantedItemToPayload(*item),
		"tasks": serializedTasks,
	})
}

// RemovePlantedItem 移除一次种植及其任务历史
func (a *API) RemovePlantedItem(c *gin.Context) {
	itemID, err := parseUintParam(c, "itemId")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的种植记录ID")
		return
	}

	if err := a.plots.RemoveItem(itemID); err != nil {
		handlePlotError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func parsePlotInput(c *gin.Context) (service.PlotInput, bool) {
	var payload plotPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.PlotInput{}, false
		}
	} else {
		respondError(c, http.StatusBadRequest, "请求参数不合法")
		return service.PlotInput{}, false
	}

	return service.PlotInput{
		Name:     payload.Name,
		Width:    payload.Width,
		Height:   payload.Height,
		Location: payload.Location,
	}, true
}

func plotToPayload(plot db.GardenPlot) gin.H {
	return gin.H{
		"id":       plot.ID,
		"name":     plot.Name,
		"width":    plot.Width,
		"height":   plot.Height,
		"location": plot.Location,
	}
}

func plantedItemToPayload(item db.PlantedItem) gin.H {
	payload := gin.H{
		"id":           item.ID,
		"plot_id":      item.PlotID,
		"plant_id":     item.PlantID,
		"x":            item.PositionX,
		"y":            item.PositionY,
		"quantity":     item.Quantity,
		"date_planted": item.DatePlanted.Format("2006-01-02"),
		"notes":        item.Notes,
	}
	if item.Plant.ID != 0 {
		payload["plant_name"] = item.Plant.Name
	}
	return payload
}

func handlePlotError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlotNotFound):
		respondError(c, http.StatusNotFound, "园地不存在")
	case errors.Is(err, service.ErrPlantNotFound):
		respondError(c, http.StatusNotFound, "植物不存在")
	case errors.Is(err, service.ErrPlantedItemNotFound):
		respondError(c, http.StatusNotFound, "种植记录不存在")
	case errors.Is(err, service.ErrPlotInvalidSize):
		respondError(c, http.StatusBadRequest, "园地尺寸无效")
	case errors.Is(err, service.ErrPositionOutOfBounds):
		respondError(c, http.StatusBadRequest, "种植位置超出园地范围")
	case errors.Is(err, service.ErrPositionOccupied):
		respondError(c, http.StatusConflict, "该位置已有种植")
	case errors.Is(err, service.ErrCareConfigMissing):
		respondError(c, http.StatusBadRequest, "该植物没有任何养护配置，无法安排任务")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/planted/internal/db"
	"github.com/planted/internal/service"
)

type plantCarePayload struct {
	WateringFrequencyDays    *int   `json:"watering_frequency_days"`
	FertilizingFrequencyDays *int   `json:"fertilizing_frequency_days"`
	HarvestWindowStartDays   *int   `json:"harvest_window_start_days"`
	HarvestWindowEndDays     *int   `json:"harvest_window_end_days"`
	WaterNeeds               string `json:"water_needs"`
}

type plantPayload struct {
	Name              string           `json:"name"`
	ScientificName    string           `json:"scientific_name"`
	PlantType         string           `json:"plant_type"`
	Season            string           `json:"season"`
	DaysToGermination int              `json:"days_to_germination"`
	DaysToMaturity    int              `json:"days_to_maturity"`
	SpacingInches     int              `json:"spacing_inches"`
	SunRequirements   string           `json:"sun_requirements"`
	CareNotes         string           `json:"care_notes"`
	ImageURL          string           `json:"image_url"`
	Care              plantCarePayload `json:"care"`
}

// ShowPlantList 渲染植物图鉴列表页
func (a *API) ShowPlantList(c *gin.Context) {
	filter := service.PlantFilter{
		Search:    c.Query("search"),
		PlantType: c.Query("type"),
		Season:    c.Query("season"),
	}

	plants, err := a.plants.List(filter)
	if err != nil {
		a.RenderHTML(c, http.StatusInternalServerError, "plant_list.html", gin.H{
			"title": "植物图鉴",
			"error": "获取植物列表失败",
		})
		return
	}

	a.RenderHTML(c, http.StatusOK, "plant_list.html", gin.H{
		"title":  "植物图鉴",
		"plants": plants,
		"filter": filter,
	})
}

// ShowPlantEdit 渲染创建/编辑植物页
func (a *API) ShowPlantEdit(c *gin.Context) {
	data := gin.H{
		"title": "添加植物",
		"plant": db.Plant{},
	}

	if idParam := c.Param("id"); idParam != "" {
		if id, err := strconv.ParseUint(idParam, 10, 32); err == nil {
			plant, err := a.plants.Get(uint(id))
			if err == nil {
				data["title"] = "编辑植物"
				data["plant"] = plant
				data["careNotesHTML"] = service.RenderCareNotes(plant.CareNotes)
			} else if errors.Is(err, service.ErrPlantNotFound) {
				data["error"] = "植物不存在"
			} else {
				data["error"] = "加载植物失败"
			}
		}
	}

	a.RenderHTML(c, http.StatusOK, "plant_edit.html", data)
}

// ListPlants 返回植物图鉴 JSON
func (a *API) ListPlants(c *gin.Context) {
	filter := service.PlantFilter{
		Search:    c.Query("search"),
		PlantType: c.Query("plant_type"),
		Season:    c.Query("season"),
	}

	plants, err := a.plants.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取植物列表失败")
		return
	}

	items := make([]gin.H, 0, len(plants))
	for _, plant := range plants {
		items = append(items, plantToPayload(plant))
	}

	c.JSON(http.StatusOK, gin.H{"plants": items})
}

// GetPlant 返回单个植物详情
func (a *API) GetPlant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植物ID")
		return
	}

	plant, err := a.plants.Get(id)
	if err != nil {
		handlePlantError(c, err)
		return
	}

	payload := plantToPayload(*plant)
	payload["care_notes_html"] = string(service.RenderCareNotes(plant.CareNotes))
	c.JSON(http.StatusOK, gin.H{"plant": payload})
}

// CreatePlant 创建自定义植物
func (a *API) CreatePlant(c *gin.Context) {
	input, ok := a.parsePlantInput(c)
	if !ok {
		return
	}

	plant, err := a.plants.Create(input)
	if err != nil {
		handlePlantError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plant": plantToPayload(*plant)})
}

// UpdatePlant 更新植物
func (a *API) UpdatePlant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植物ID")
		return
	}

	input, ok := a.parsePlantInput(c)
	if !ok {
		return
	}

	plant, err := a.plants.Update(id, input)
	if err != nil {
		handlePlantError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"plant": plantToPayload(*plant)})
}

// DeletePlant 删除植物，仍被种植引用时返回 409
func (a *API) DeletePlant(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的植物ID")
		return
	}

	if err := a.plants.Delete(id); err != nil {
		handlePlantError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ImportPlants 从上传的 JSON 文件批量导入图鉴
func (a *API) ImportPlants(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "未找到上传的文件")
		return
	}

	opened, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "读取上传文件失败")
		return
	}
	defer opened.Close()

	created, err := a.plants.ImportJSON(opened)
	if err != nil {
		if errors.Is(err, service.ErrPlantInvalidCare) {
			respondError(c, http.StatusBadRequest, "导入数据的养护配置无效")
			return
		}
		respondError(c, http.StatusBadRequest, "导入失败，请检查文件格式")
		return
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (a *API) parsePlantInput(c *gin.Context) (service.PlantInput, bool) {
	var payload plantPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.PlantInput{}, false
		}
	} else {
		payload.Name = c.PostForm("name")
		payload.ScientificName = c.PostForm("scientific_name")
		payload.PlantType = c.PostForm("plant_type")
		payload.Season = c.PostForm("season")
		payload.SunRequirements = c.PostForm("sun_requirements")
		payload.CareNotes = c.PostForm("care_notes")
		payload.ImageURL = c.PostForm("image_url")
		payload.Care.WaterNeeds = c.PostForm("water_needs")

		fields := map[string]*int{
			"days_to_germination": &payload.DaysToGermination,
			"days_to_maturity":    &payload.DaysToMaturity,
			"spacing_inches":      &payload.SpacingInches,
		}
		for key, dst := range fields {
			if raw := c.PostForm(key); raw != "" {
				val, err := strconv.Atoi(raw)
				if err != nil {
					respondError(c, http.StatusBadRequest, "数值字段格式不正确")
					return service.PlantInput{}, false
				}
				*dst = val
			}
		}

		optional := map[string]**int{
			"watering_frequency_days":    &payload.Care.WateringFrequencyDays,
			"fertilizing_frequency_days": &payload.Care.FertilizingFrequencyDays,
			"harvest_window_start_days":  &payload.Care.HarvestWindowStartDays,
			"harvest_window_end_days":    &payload.Care.HarvestWindowEndDays,
		}
		for key, dst := range optional {
			raw := strings.TrimSpace(c.PostForm(key))
			if raw == "" {
				continue
			}
			val, err := strconv.Atoi(raw)
			if err != nil {
				respondError(c, http.StatusBadRequest, "养护配置格式不正确")
				return service.PlantInput{}, false
			}
			*dst = &val
		}
	}

	care := db.PlantCare{
		WateringFrequencyDays:    payload.Care.WateringFrequencyDays,
		FertilizingFrequencyDays: payload.Care.FertilizingFrequencyDays,
		HarvestWindowStartDays:   payload.Care.HarvestWindowStartDays,
		HarvestWindowEndDays:     payload.Care.HarvestWindowEndDays,
	}
	// 表单只给档位时按档位换算浇水节奏
	if care.WateringFrequencyDays == nil {
		care.WateringFrequencyDays = service.WaterNeedsFrequency(payload.Care.WaterNeeds)
	}

	return service.PlantInput{
		Name:              payload.Name,
		ScientificName:    payload.ScientificName,
		PlantType:         payload.PlantType,
		Season:            payload.Season,
		DaysToGermination: payload.DaysToGermination,
		DaysToMaturity:    payload.DaysToMaturity,
		SpacingInches:     payload.SpacingInches,
		SunRequirements:   payload.SunRequirements,
		CareNotes:         payload.CareNotes,
		ImageURL:          payload.ImageURL,
		Care:              care,
	}, true
}

func plantToPayload(plant db.Plant) gin.H {
	item := gin.H{
		"id":                  plant.ID,
		"name":                plant.Name,
		"scientific_name":     plant.ScientificName,
		"plant_type":          plant.PlantType,
		"season":              plant.Season,
		"days_to_germination": plant.DaysToGermination,
		"days_to_maturity":    plant.DaysToMaturity,
		"spacing_inches":      plant.SpacingInches,
		"sun_requirements":    plant.SunRequirements,
		"care_notes":          plant.CareNotes,
		"image_url":           plant.ImageURL,
		"is_custom":           plant.IsCustom,
	}

	care := gin.H{}
	if plant.Care.WateringFrequencyDays != nil {
		care["watering_frequency_days"] = *plant.Care.WateringFrequencyDays
	}
	if plant.Care.FertilizingFrequencyDays != nil {
		care["fertilizing_frequency_days"] = *plant.Care.FertilizingFrequencyDays
	}
	if plant.Care.HarvestWindowStartDays != nil {
		care["harvest_window_start_days"] = *plant.Care.HarvestWindowStartDays
	}
	if plant.Care.HarvestWindowEndDays != nil {
		care["harvest_window_end_days"] = *plant.Care.HarvestWindowEndDays
	}
	item["care"] = care

	return item
}

func handlePlantError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPlantNotFound):
		respondError(c, http.StatusNotFound, "植物不存在")
	case errors.Is(err, service.ErrPlantNameTaken):
		respondError(c, http.StatusConflict, "植物名称已存在")
	case errors.Is(err, service.ErrPlantInvalidCare):
		respondError(c, http.StatusBadRequest, "养护配置无效")
	case errors.Is(err, service.ErrPlantInUse):
		respondError(c, http.StatusConflict, "植物仍被种植引用，无法删除")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}

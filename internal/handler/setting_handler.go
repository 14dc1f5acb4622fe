package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planted/internal/service"
)

// ShowSettings 渲染站点设置页
func (a *API) ShowSettings(c *gin.Context) {
	settings, err := a.settings.GetSettings()
	if err != nil {
		a.RenderHTML(c, http.StatusInternalServerError, "settings.html", gin.H{
			"title": "站点设置",
			"error": "加载设置失败",
		})
		return
	}

	a.RenderHTML(c, http.StatusOK, "settings.html", gin.H{
		"title":    "站点设置",
		"settings": settings,
	})
}

// UpdateSettings 保存站点设置
func (a *API) UpdateSettings(c *gin.Context) {
	var input service.SiteSettingsInput

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		var payload struct {
			SiteName     string `json:"site_name"`
			LocationName string `json:"location_name"`
			Latitude     string `json:"latitude"`
			Longitude    string `json:"longitude"`
		}
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
		input = service.SiteSettingsInput{
			SiteName:     payload.SiteName,
			LocationName: payload.LocationName,
			Latitude:     payload.Latitude,
			Longitude:    payload.Longitude,
		}
	} else {
		input = service.SiteSettingsInput{
			SiteName:     c.PostForm("site_name"),
			LocationName: c.PostForm("location_name"),
			Latitude:     c.PostForm("latitude"),
			Longitude:    c.PostForm("longitude"),
		}
	}

	settings, err := a.settings.UpdateSettings(input)
	if err != nil {
		respondError(c, http.StatusBadRequest, "保存设置失败，请检查坐标格式")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"site_name":     settings.SiteName,
		"location_name": settings.LocationName,
		"latitude":      settings.Latitude,
		"longitude":     settings.Longitude,
	})
}

// GetRecommendations 返回当季与下季的种植建议 JSON
func (a *API) GetRecommendations(c *gin.Context) {
	rec, err := a.recommend.ForDate(time.Now())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取种植建议失败")
		return
	}

	plantNow := make([]gin.H, 0, len(rec.PlantNow))
	for _, plant := range rec.PlantNow {
		plantNow = append(plantNow, plantToPayload(plant))
	}
	prepareFor := make([]gin.H, 0, len(rec.PrepareFor))
	for _, plant := range rec.PrepareFor {
		prepareFor = append(prepareFor, plantToPayload(plant))
	}

	c.JSON(http.StatusOK, gin.H{
		"season":      string(rec.Season),
		"next_season": string(rec.NextSeason),
		"plant_now":   plantNow,
		"prepare_for": prepareFor,
	})
}

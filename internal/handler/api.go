package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/planted/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	plants    *service.PlantService
	plots     *service.PlotService
	care      *service.CareService
	weather   *service.WeatherService
	settings  *service.SettingService
	recommend *service.RecommendService
	uploadDir string
	uploadURL string

	defaultLatitude  float64
	defaultLongitude float64
}

type siteViewModel struct {
	Name     string
	Location string
}

const siteSettingsContextKey = "__site_settings"

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB, uploadDir, uploadURL string, defaultLat, defaultLon float64) *API {
	care := service.NewCareService(db)

	return &API{
		db:               db,
		plants:           service.NewPlantService(db),
		plots:            service.NewPlotService(db, care.Scheduler()),
		care:             care,
		weather:          service.NewWeatherService(),
		settings:         service.NewSettingService(db),
		recommend:        service.NewRecommendService(db),
		uploadDir:        uploadDir,
		uploadURL:        uploadURL,
		defaultLatitude:  defaultLat,
		defaultLongitude: defaultLon,
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Weather exposes the weather service so tests can swap the HTTP client.
func (a *API) Weather() *service.WeatherService {
	return a.weather
}

func (a *API) siteSettings(c *gin.Context) siteViewModel {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if view, ok := cached.(siteViewModel); ok {
			return view
		}
	}

	settings, err := a.settings.GetSettings()
	if err != nil {
		c.Error(err)
	}

	view := siteViewModel{
		Name:     strings.TrimSpace(settings.SiteName),
		Location: strings.TrimSpace(settings.LocationName),
	}
	if view.Name == "" {
		view.Name = "Planted"
	}

	c.Set(siteSettingsContextKey, view)
	return view
}

// coordinates 返回天气查询用的坐标，站点设置优先，缺省回退环境变量默认值
func (a *API) coordinates(c *gin.Context) (float64, float64) {
	settings, err := a.settings.GetSettings()
	if err != nil {
		c.Error(err)
		return a.defaultLatitude, a.defaultLongitude
	}
	if settings.Latitude != nil && settings.Longitude != nil {
		return *settings.Latitude, *settings.Longitude
	}
	return a.defaultLatitude, a.defaultLongitude
}

// RenderHTML 在向模板渲染时自动附加站点设置中的名称与位置信息。
func (a *API) RenderHTML(c *gin.Context, status int, template string, data gin.H) {
	view := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = view.Name
	}
	if _, exists := payload["siteLocation"]; !exists {
		payload["siteLocation"] = view.Location
	}

	c.HTML(status, template, payload)
}

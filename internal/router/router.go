package router

import (
	"html/template"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/planted/internal/config"
	"github.com/planted/internal/db"
	"github.com/planted/internal/handler"
	"github.com/planted/internal/service"
	"github.com/planted/internal/view"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("planted_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
		"taskIcon":      view.TaskIcon,
		"taskLabel":     view.TaskIconLabel,
		"seasonLabel":   view.SeasonLabel,
		"renderNotes":   service.RenderCareNotes,
		"safeSVG":       func(s string) template.HTML { return template.HTML(s) },
	})
	r.LoadHTMLGlob("web/template/*.html")

	// 静态文件服务
	r.Static("/static", "./web/static")

	api := handler.NewAPI(db.DB, cfg.UploadDir, cfg.UploadURLPath, cfg.WeatherLatitude, cfg.WeatherLongitude)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			auth.GET("/dashboard", api.ShowDashboard)
			auth.GET("/plants", api.ShowPlantList)
			auth.GET("/plants/new", api.ShowPlantEdit)
			auth.GET("/plants/:id/edit", api.ShowPlantEdit)
			auth.GET("/plots", api.ShowPlotList)
			auth.GET("/plots/:id", api.ShowPlotDetail)
			auth.GET("/care", api.ShowCarePage)
			auth.GET("/settings", api.ShowSettings)

			// API路由
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/plants", api.ListPlants)
				apiGroup.GET("/plants/:id", api.GetPlant)
				apiGroup.POST("/plants", api.CreatePlant)
				apiGroup.PUT("/plants/:id", api.UpdatePlant)
				apiGroup.DELETE("/plants/:id", api.DeletePlant)
				apiGroup.POST("/plants/import", api.ImportPlants)

				apiGroup.GET("/plots", api.ListPlots)
				apiGroup.GET("/plots/:id", api.GetPlot)
				apiGroup.POST("/plots", api.CreatePlot)
				apiGroup.PUT("/plots/:id", api.UpdatePlot)
				apiGroup.DELETE("/plots/:id", api.DeletePlot)
				apiGroup.POST("/plots/:id/items", api.PlantInPlot)
				apiGroup.DELETE("/items/:itemId", api.RemovePlantedItem)

				apiGroup.GET("/care/tasks", api.ListCareTasks)
				apiGroup.POST("/care/tasks/:id/complete", api.CompleteCareTask)

				apiGroup.GET("/recommendations", api.GetRecommendations)

				apiGroup.POST("/settings", api.UpdateSettings)
				apiGroup.POST("/upload/image", api.UploadImage)
			}
		}
	}

	return r
}

package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/planted/internal/db"
	"github.com/planted/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.RenderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "管理员登录",
	})
}

// Login 处理用户登录请求
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login_error.html", gin.H{"error": "用户名或密码错误"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		c.HTML(http.StatusUnauthorized, "login_error.html", gin.H{"error": "用户名或密码错误"})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		c.HTML(http.StatusInternalServerError, "login_error.html", gin.H{"error": "会话保存失败"})
		return
	}

	c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/admin/login")
}

// ShowDashboard 渲染后台主面板：园地种植概览、今日待办与季节建议
func (a *API) ShowDashboard(c *gin.Context) {
	session := sessions.Default(c)
	username := session.Get("username")

	var plotCount, plantCount, itemCount int64
	a.db.Model(&db.GardenPlot{}).Count(&plotCount)
	a.db.Model(&db.Plant{}).Count(&plantCount)
	a.db.Model(&db.PlantedItem{}).Count(&itemCount)

	today := time.Now()

	data := gin.H{
		"title":      "管理面板",
		"username":   username,
		"plotCount":  plotCount,
		"plantCount": plantCount,
		"itemCount":  itemCount,
	}

	groups, err := a.care.Schedule(service.CareFilterToday, today)
	if err != nil {
		c.Error(err)
	} else {
		due := 0
		for _, group := range groups {
			due += len(group.Tasks)
		}
		data["dueToday"] = due
	}

	if rec, err := a.recommend.ForDate(today); err == nil {
		data["recommendation"] = rec
	} else {
		c.Error(err)
	}

	a.RenderHTML(c, http.StatusOK, "dashboard.html", data)
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

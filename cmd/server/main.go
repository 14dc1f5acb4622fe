package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/planted/internal/config"
	"github.com/planted/internal/db"
	"github.com/planted/internal/router"
	"github.com/planted/internal/service"
)

func main() {
	// .env 不存在时静默跳过，线上直接读环境变量
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 内置图鉴按名称幂等写入
	if created, err := service.SeedDefaultPlants(db.DB); err != nil {
		log.Fatalf("failed to seed default plants: %v", err)
	} else if created > 0 {
		log.Printf("seeded %d default plants", created)
	}

	// 配置了超级管理员时确保账号存在
	if cfg.SuperRootUserName != "" && cfg.SuperRootPassword != "" {
		if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
			log.Fatalf("failed to ensure admin user: %v", err)
		}
	}

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

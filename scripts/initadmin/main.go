package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/planted/internal/config"
	"github.com/planted/internal/db"
)

// 初始化或重置管理员账号：
//
//	go run ./scripts/initadmin -username admin -password secret
func main() {
	username := flag.String("username", "admin", "管理员用户名")
	password := flag.String("password", "", "管理员密码")
	flag.Parse()

	if *password == "" {
		log.Fatal("password is required")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureUser(*username, *password); err != nil {
		log.Fatalf("failed to ensure user: %v", err)
	}

	log.Printf("admin user %q is ready", *username)
}

package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/planted/internal/config"
	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
	"github.com/planted/internal/service"
)

// 造一份演示数据：一个园地加几株不同节奏的种植，便于本地查看养护页效果。
//
//	go run ./scripts/seeddemo
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	cfg := config.Load()

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if _, err := service.SeedDefaultPlants(db.DB); err != nil {
		log.Fatalf("failed to seed default plants: %v", err)
	}

	care := service.NewCareService(db.DB)
	plots := service.NewPlotService(db.DB, care.Scheduler())
	plants := service.NewPlantService(db.DB)

	plot, err := plots.Create(service.PlotInput{Name: "演示苗床", Width: 4, Height: 3, Location: "后院"})
	if err != nil {
		log.Fatalf("failed to create demo plot: %v", err)
	}

	today := dateutil.Normalize(time.Now())
	demo := []struct {
		name    string
		x, y    int
		daysAgo int
	}{
		{"Tomato", 0, 0, 10},
		{"Lettuce", 1, 0, 5},
		{"Basil", 2, 0, 2},
		{"Carrot", 0, 1, 20},
	}

	for _, entry := range demo {
		matched, err := plants.List(service.PlantFilter{Search: entry.name})
		if err != nil || len(matched) == 0 {
			log.Fatalf("demo plant %s not found: %v", entry.name, err)
		}

		_, tasks, err := plots.PlantItem(service.PlantingInput{
			PlotID:      plot.ID,
			PlantID:     matched[0].ID,
			X:           entry.x,
			Y:           entry.y,
			DatePlanted: dateutil.AddDays(today, -entry.daysAgo),
		}, today)
		if err != nil {
			log.Fatalf("failed to plant %s: %v", entry.name, err)
		}
		log.Printf("planted %s with %d initial tasks", entry.name, len(tasks))
	}

	log.Printf("demo garden ready in plot %q (id=%d)", plot.Name, plot.ID)
}

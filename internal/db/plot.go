package db

import (
	"time"

	"gorm.io/gorm"
)

// GardenPlot 表示一块园地，内部按 Width x Height 网格摆放植物
type GardenPlot struct {
	gorm.Model
	Name     string `gorm:"not null"`
	Width    int    `gorm:"not null"`
	Height   int    `gorm:"not null"`
	Location string
}

// PlantedItem 表示园地格子里的一次种植
// DatePlanted 创建后不可变，任务推算均以它为基准
// 删除种植时级联删除其全部养护任务（含历史记录）
type PlantedItem struct {
	gorm.Model
	PlotID      uint       `gorm:"index;not null"`
	Plot        GardenPlot `gorm:"constraint:OnDelete:CASCADE"`
	PlantID     uint       `gorm:"index;not null"`
	Plant       Plant
	PositionX   int
	PositionY   int
	Quantity    int
	DatePlanted time.Time `gorm:"not null"`
	Notes       string
}

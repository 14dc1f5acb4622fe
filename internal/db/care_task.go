package db

import (
	"time"

	"gorm.io/gorm"
)

// TaskType 是养护任务类型的封闭枚举
type TaskType string

const (
	TaskWatering    TaskType = "watering"
	TaskFertilizing TaskType = "fertilizing"
	TaskHarvest     TaskType = "harvest"
)

// RecurringTaskTypes 列出会循环生成后继的任务类型，harvest 为一次性任务不在其中
var RecurringTaskTypes = []TaskType{TaskWatering, TaskFertilizing}

// Recurring 判断该类型完成后是否生成下一次任务
func (t TaskType) Recurring() bool {
	return t == TaskWatering || t == TaskFertilizing
}

// CareTask 表示某次种植的一条养护任务
// 同一 (planted_item_id, task_type) 在任意时刻最多存在一条未完成记录，
// 通过 completed_at IS NULL 上的部分唯一索引在存储层兜底，防止并发重复生成
// 完成的记录永不复用或改写，历史只追加
type CareTask struct {
	gorm.Model
	PlantedItemID uint        `gorm:"index;index:idx_open_care_task,unique,where:completed_at IS NULL"`
	PlantedItem   PlantedItem `gorm:"constraint:OnDelete:CASCADE"`
	TaskType      TaskType    `gorm:"index:idx_open_care_task,unique,where:completed_at IS NULL"`
	DueDate       time.Time   `gorm:"not null"`
	CompletedAt   *time.Time
	Notes         string
}

// Open 判断任务是否尚未完成
func (t CareTask) Open() bool {
	return t.CompletedAt == nil
}

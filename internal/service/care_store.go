package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrPlantedItemNotFound 在引用的种植记录不存在时返回
	ErrPlantedItemNotFound = errors.New("planted item not found")
	// ErrTaskNotFound 在引用的养护任务不存在时返回
	ErrTaskNotFound = errors.New("care task not found")
	// ErrTaskAlreadyCompleted 表示非法状态迁移：任务不允许重复完成
	ErrTaskAlreadyCompleted = errors.New("care task already completed")
	// ErrDuplicateOpenTask 表示存储层唯一约束被触发：同类型未完成任务已存在
	ErrDuplicateOpenTask = errors.New("open care task of this type already exists")
)

// CareTaskStore 是调度器对持久层的全部依赖，共四个操作
// 并发保护依赖存储层：completed_at IS NULL 上的部分唯一索引保证
// 同一 (planted_item_id, task_type) 至多一条未完成记录
type CareTaskStore interface {
	GetPlantedItem(id uint) (*db.PlantedItem, error)
	GetOpenTasks(plantedItemID uint) ([]db.CareTask, error)
	InsertTask(task db.CareTask) (*db.CareTask, error)
	CompleteTaskRow(taskID uint, completedAt time.Time) (*db.CareTask, error)
}

// GardenStore 基于 gorm 实现 CareTaskStore，并附带 CRUD 层的读取路径
type GardenStore struct {
	db *gorm.DB
}

// NewGardenStore 构造 GardenStore
func NewGardenStore(gdb *gorm.DB) *GardenStore {
	return &GardenStore{db: gdb}
}

// GetPlantedItem 按 ID 取种植记录，携带植物图鉴信息
func (s *GardenStore) GetPlantedItem(id uint) (*db.PlantedItem, error) {
	var item db.PlantedItem
	if err := s.db.Preload("Plant").First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantedItemNotFound
		}
		return nil, fmt.Errorf("get planted item: %w", err)
	}
	return &item, nil
}

// GetOpenTasks 返回某次种植下全部未完成任务
func (s *GardenStore) GetOpenTasks(plantedItemID uint) ([]db.CareTask, error) {
	var tasks []db.CareTask
	if err := s.db.Where("planted_item_id = ? AND completed_at IS NULL", plantedItemID).
		Order("due_date ASC, task_type ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list open tasks: %w", err)
	}
	return tasks, nil
}

// ListTasks 返回某次种植的完整任务历史（含已完成），养护页与调度器的再生成入口使用
func (s *GardenStore) ListTasks(plantedItemID uint) ([]db.CareTask, error) {
	var tasks []db.CareTask
	if err := s.db.Where("planted_item_id = ?", plantedItemID).
		Order("due_date ASC, task_type ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// InsertTask 持久化一条新任务并返回带 ID 的记录
// 触发未完成任务唯一索引时返回 ErrDuplicateOpenTask，由调用方决定是否重读重试
func (s *GardenStore) InsertTask(task db.CareTask) (*db.CareTask, error) {
	task.DueDate = dateutil.Normalize(task.DueDate)
	if err := s.db.Create(&task).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: planted_item=%d type=%s", ErrDuplicateOpenTask, task.PlantedItemID, task.TaskType)
		}
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return &task, nil
}

// CompleteTaskRow 以单行原子更新的方式标记任务完成
// WHERE completed_at IS NULL 保证并发重复完成只有一个会生效
func (s *GardenStore) CompleteTaskRow(taskID uint, completedAt time.Time) (*db.CareTask, error) {
	done := dateutil.Normalize(completedAt)

	result := s.db.Model(&db.CareTask{}).
		Where("id = ? AND completed_at IS NULL", taskID).
		Update("completed_at", done)
	if result.Error != nil {
		return nil, fmt.Errorf("complete task row: %w", result.Error)
	}

	var task db.CareTask
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("reload task: %w", err)
	}

	if result.RowsAffected == 0 {
		// 行存在但没被更新，说明已经完成过
		return nil, fmt.Errorf("%w: task=%d", ErrTaskAlreadyCompleted, taskID)
	}

	return &task, nil
}

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
	// ErrPlotNotFound 在指定园地不存在时返回
	ErrPlotNotFound = errors.New("garden plot not found")
	// ErrPlotInvalidSize 当网格尺寸非法时返回
	ErrPlotInvalidSize = errors.New("plot size must be positive")
	// ErrPositionOutOfBounds 当种植坐标落在网格外时返回
	ErrPositionOutOfBounds = errors.New("position outside plot grid")
	// ErrPositionOccupied 当目标格子已有种植时返回
	ErrPositionOccupied = errors.New("position already occupied")
)

// PlotService 负责园地与种植位的管理
// 种植创建后立即由调度器播种初始任务；移除种植时连同任务历史一并删除
type PlotService struct {
	db        *gorm.DB
	scheduler *CareScheduler
}

// PlotInput 定义创建/更新园地时可配置字段
type PlotInput struct {
	Name     string
	Width    int
	Height   int
	Location string
}

// PlantingInput 聚合一次种植操作的全部参数
type PlantingInput struct {
	PlotID      uint
	PlantID     uint
	X           int
	Y           int
	Quantity    int
	Notes       string
	DatePlanted time.Time
}

// NewPlotService 构造 PlotService
func NewPlotService(gdb *gorm.DB, scheduler *CareScheduler) *PlotService {
	return &PlotService{db: gdb, scheduler: scheduler}
}

// List 返回全部园地
func (s *PlotService) List() ([]db.GardenPlot, error) {
	var plots []db.GardenPlot
	if err := s.db.Order("created_at ASC").Find(&plots).Error; err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return plots, nil
}

// Get 根据 ID 获取园地
func (s *PlotService) Get(id uint) (*db.GardenPlot, error) {
	var plot db.GardenPlot
	if err := s.db.First(&plot, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlotNotFound
		}
		return nil, fmt.Errorf("get plot: %w", err)
	}
	return &plot, nil
}

// Items 返回园地内全部种植，携带植物信息
func (s *PlotService) Items(plotID uint) ([]db.PlantedItem, error) {
	var items []db.PlantedItem
	if err := s.db.Preload("Plant").
		Where("plot_id = ?", plotID).
		Order("position_y ASC, position_x ASC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list plot items: %w", err)
	}
	return items, nil
}

// Create 新建园地
func (s *PlotService) Create(input PlotInput) (*db.GardenPlot, error) {
	if err := validatePlotInput(input); err != nil {
		return nil, err
	}

	plot := db.GardenPlot{
		Name:     strings.TrimSpace(input.Name),
		Width:    input.Width,
		Height:   input.Height,
		Location: strings.TrimSpace(input.Location),
	}
	if err := s.db.Create(&plot).Error; err != nil {
		return nil, fmt.Errorf("create plot: %w", err)
	}
	return &plot, nil
}

// Update 更新园地基本信息；缩小尺寸时已有种植不受影响，由调用方自行清理
func (s *PlotService) Update(id uint, input PlotInput) (*db.GardenPlot, error) {
	if err := validatePlotInput(input); err != nil {
		return nil, err
	}

	plot, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	plot.Name = strings.TrimSpace(input.Name)
	plot.Width = input.Width
	plot.Height = input.Height
	plot.Location = strings.TrimSpace(input.Location)

	if err := s.db.Save(plot).Error; err != nil {
		return nil, fmt.Errorf("update plot: %w", err)
	}
	return plot, nil
}

// Delete 删除园地并级联清理其种植与任务历史
// SQLite 默认不开启外键约束，这里在事务内手工级联
func (s *PlotService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []uint
		if err := tx.Model(&db.PlantedItem{}).Where("plot_id = ?", id).Pluck("id", &itemIDs).Error; err != nil {
			return fmt.Errorf("list plot item ids: %w", err)
		}

		if len(itemIDs) > 0 {
			if err := tx.Where("planted_item_id IN ?", itemIDs).Delete(&db.CareTask{}).Error; err != nil {
				return fmt.Errorf("delete plot tasks: %w", err)
			}
			if err := tx.Where("plot_id = ?", id).Delete(&db.PlantedItem{}).Error; err != nil {
				return fmt.Errorf("delete plot items: %w", err)
			}
		}

		if err := tx.Delete(&db.GardenPlot{}, id).Error; err != nil {
			return fmt.Errorf("delete plot: %w", err)
		}
		return nil
	})
}

// PlantItem 在园地格子里种下一株植物并播种初始养护任务。
// 养护配置完全为空时种植整体失败（ErrCareConfigMissing），不会留下没有任务的种植。
func (s *PlotService) PlantItem(input PlantingInput, today time.Time) (*db.PlantedItem, []db.CareTask, error) {
	plot, err := s.Get(input.PlotID)
	if err != nil {
		return nil, nil, err
	}

	var plant db.Plant
	if err := s.db.First(&plant, input.PlantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrPlantNotFound
		}
		return nil, nil, fmt.Errorf("get plant: %w", err)
	}

	if input.X < 0 || input.Y < 0 || input.X >= plot.Width || input.Y >= plot.Height {
		return nil, nil, fmt.Errorf("%w: (%d,%d) in %dx%d", ErrPositionOutOfBounds, input.X, input.Y, plot.Width, plot.Height)
	}

	var occupied int64
	if err := s.db.Model(&db.PlantedItem{}).
		Where("plot_id = ? AND position_x = ? AND position_y = ?", input.PlotID, input.X, input.Y).
		Count(&occupied).Error; err != nil {
		return nil, nil, fmt.Errorf("check occupancy: %w", err)
	}
	if occupied > 0 {
		return nil, nil, fmt.Errorf("%w: (%d,%d)", ErrPositionOccupied, input.X, input.Y)
	}

	planted := input.DatePlanted
	if planted.IsZero() {
		planted = today
	}

	quantity := input.Quantity
	if quantity < 1 {
		quantity = 1
	}

	item := db.PlantedItem{
		PlotID:      input.PlotID,
		PlantID:     input.PlantID,
		PositionX:   input.X,
		PositionY:   input.Y,
		Quantity:    quantity,
		DatePlanted: dateutil.Normalize(planted),
		Notes:       strings.TrimSpace(input.Notes),
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, nil, fmt.Errorf("create planted item: %w", err)
	}

	tasks, err := s.scheduler.SeedTasks(item, plant.Care)
	if err != nil {
		// 播种失败时收回这次种植，让错误对调用方可见
		s.db.Delete(&db.PlantedItem{}, item.ID)
		return nil, nil, err
	}

	return &item, tasks, nil
}

// RemoveItem 移除一次种植并删除其全部任务（含历史）
func (s *PlotService) RemoveItem(itemID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var item db.PlantedItem
		if err := tx.First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPlantedItemNotFound
			}
			return fmt.Errorf("find planted item: %w", err)
		}

		if err := tx.Where("planted_item_id = ?", itemID).Delete(&db.CareTask{}).Error; err != nil {
			return fmt.Errorf("delete item tasks: %w", err)
		}
		if err := tx.Delete(&db.PlantedItem{}, itemID).Error; err != nil {
			return fmt.Errorf("delete planted item: %w", err)
		}
		return nil
	})
}

func validatePlotInput(input PlotInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("plot name is required")
	}
	if input.Width <= 0 || input.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrPlotInvalidSize, input.Width, input.Height)
	}
	return nil
}

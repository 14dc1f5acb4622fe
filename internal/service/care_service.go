package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
	"gorm.io/gorm"
)

// ErrUnknownCareFilter 在养护页收到未知的筛选参数时返回
var ErrUnknownCareFilter = errors.New("unknown care filter")

// 养护页支持的筛选范围
const (
	CareFilterToday   = "today"
	CareFilterWeek    = "week"
	CareFilterMonth   = "month"
	CareFilterOverdue = "overdue"
)

// CareTaskView 是任务在页面上的展示模型，附带植物与园地信息及只读分类
type CareTaskView struct {
	Task        db.CareTask
	PlantName   string
	PlotName    string
	Status      TaskStatus
	OverdueDays int
}

// TaskGroup 把同一天到期的任务聚在一个日期标签下
type TaskGroup struct {
	Label string
	Date  time.Time
	Tasks []CareTaskView
}

// CareService 串联养护页的完整流程：
// 每次浏览时对所有种植做幂等的任务再生成，然后筛选、分组、分类。
type CareService struct {
	db        *gorm.DB
	store     *GardenStore
	scheduler *CareScheduler
}

// NewCareService 构造 CareService
func NewCareService(gdb *gorm.DB) *CareService {
	store := NewGardenStore(gdb)
	return &CareService{
		db:        gdb,
		store:     store,
		scheduler: NewCareScheduler(store),
	}
}

// Store 暴露底层四操作存储，供种植入口复用
func (s *CareService) Store() *GardenStore {
	return s.store
}

// Scheduler 暴露调度器，种植创建时的任务播种使用
func (s *CareService) Scheduler() *CareScheduler {
	return s.scheduler
}

// RefreshItem 将某次种植的任务集合推进到与 today 一致，返回完整任务历史
func (s *CareService) RefreshItem(itemID uint, today time.Time) ([]db.CareTask, error) {
	item, err := s.store.GetPlantedItem(itemID)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListTasks(item.ID)
	if err != nil {
		return nil, err
	}

	return s.scheduler.Regenerate(*item, item.Plant.Care, existing, today)
}

// Schedule 返回按日期分组的未完成任务列表，filter 为空时默认一周内
func (s *CareService) Schedule(filter string, today time.Time) ([]TaskGroup, error) {
	if filter == "" {
		filter = CareFilterWeek
	}
	switch filter {
	case CareFilterToday, CareFilterWeek, CareFilterMonth, CareFilterOverdue:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCareFilter, filter)
	}

	today = dateutil.Normalize(today)

	var items []db.PlantedItem
	if err := s.db.Preload("Plant").Preload("Plot").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list planted items: %w", err)
	}

	var views []CareTaskView
	for _, item := range items {
		tasks, err := s.RefreshItem(item.ID, today)
		if err != nil {
			return nil, err
		}

		for _, task := range tasks {
			if !task.Open() || !matchesFilter(task, filter, today) {
				continue
			}
			views = append(views, CareTaskView{
				Task:        task,
				PlantName:   item.Plant.Name,
				PlotName:    item.Plot.Name,
				Status:      ClassifyTask(task, today),
				OverdueDays: OverdueDays(task, today),
			})
		}
	}

	return groupByDate(views, today), nil
}

// Complete 完成一条任务并返回已完成的行与后继任务（采收无后继时为 nil）
func (s *CareService) Complete(taskID uint, today time.Time) (*db.CareTask, *db.CareTask, error) {
	var task db.CareTask
	if err := s.db.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTaskNotFound
		}
		return nil, nil, fmt.Errorf("load task: %w", err)
	}

	item, err := s.store.GetPlantedItem(task.PlantedItemID)
	if err != nil {
		return nil, nil, err
	}

	next, err := s.scheduler.CompleteTask(task, item.Plant.Care, today)
	if err != nil {
		return nil, nil, err
	}

	var completed db.CareTask
	if err := s.db.First(&completed, taskID).Error; err != nil {
		return nil, nil, fmt.Errorf("reload completed task: %w", err)
	}

	return &completed, next, nil
}

func matchesFilter(task db.CareTask, filter string, today time.Time) bool {
	due := dateutil.Normalize(task.DueDate)
	switch filter {
	case CareFilterToday:
		return due.Equal(today)
	case CareFilterWeek:
		return !due.After(dateutil.AddDays(today, 7))
	case CareFilterMonth:
		return !due.After(dateutil.AddDays(today, 30))
	case CareFilterOverdue:
		return due.Before(today)
	default:
		return false
	}
}

func groupByDate(views []CareTaskView, today time.Time) []TaskGroup {
	byDate := map[time.Time][]CareTaskView{}
	for _, view := range views {
		due := dateutil.Normalize(view.Task.DueDate)
		byDate[due] = append(byDate[due], view)
	}

	groups := make([]TaskGroup, 0, len(byDate))
	for due, list := range byDate {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].PlotName != list[j].PlotName {
				return list[i].PlotName < list[j].PlotName
			}
			return list[i].Task.ID < list[j].Task.ID
		})
		groups = append(groups, TaskGroup{
			Label: dateLabel(due, today),
			Date:  due,
			Tasks: list,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date.Before(groups[j].Date)
	})
	return groups
}

// dateLabel 生成人类可读的日期标签，逾期的标注落后天数
func dateLabel(due, today time.Time) string {
	switch diff := dateutil.DaysBetween(today, due); {
	case diff == 0:
		return "今天"
	case diff == 1:
		return "明天"
	case diff < 0:
		return fmt.Sprintf("已逾期 %d 天", -diff)
	default:
		return due.Format("2006年1月2日")
	}
}

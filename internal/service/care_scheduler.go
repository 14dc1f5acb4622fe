package service

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
)

// ErrCareConfigMissing 在植物的养护配置完全为空、无法排任何任务时返回
// 这通常意味着图鉴数据有问题，必须让调用方看到而不是静默跳过
var ErrCareConfigMissing = errors.New("plant care configuration has nothing to schedule")

// TaskStatus 是任务展示状态的封闭枚举，只读分类，不落库
type TaskStatus string

const (
	StatusUpcoming  TaskStatus = "upcoming"
	StatusDueToday  TaskStatus = "due_today"
	StatusOverdue   TaskStatus = "overdue"
	StatusCompleted TaskStatus = "completed"
)

// CareScheduler 维护不变量：每次种植在任意时刻都拥有
// 其养护配置与当前日期所蕴含的那组未完成/历史任务。
// 状态机（每个 planted_item x task_type 槽位）：
//   无任务 → 未完成 → 已完成 → 未完成(下一次) → …
// harvest 槽位在第一次完成后终止。
// 所有操作显式接收 today，不读系统时钟，保证可测试与确定性。
type CareScheduler struct {
	store CareTaskStore
}

// NewCareScheduler 构造 CareScheduler
func NewCareScheduler(store CareTaskStore) *CareScheduler {
	return &CareScheduler{store: store}
}

// SeedTasks 在种植创建时调用且仅调用一次。
// 为每个非空频率创建一条未完成任务，due = 种植日 + 频率。
// 采收任务此时不创建，推迟到窗口打开后由 Regenerate 补上。
// 配置完全为空时返回 ErrCareConfigMissing。
func (s *CareScheduler) SeedTasks(item db.PlantedItem, care db.PlantCare) ([]db.CareTask, error) {
	if !care.Schedulable() {
		return nil, fmt.Errorf("%w: planted_item=%d", ErrCareConfigMissing, item.ID)
	}

	created := make([]db.CareTask, 0, 2)
	for _, taskType := range db.RecurringTaskTypes {
		freq := frequencyFor(care, taskType)
		if freq == nil {
			continue
		}

		stored, err := s.store.InsertTask(db.CareTask{
			PlantedItemID: item.ID,
			TaskType:      taskType,
			DueDate:       dateutil.AddDays(item.DatePlanted, *freq),
		})
		if err != nil {
			return nil, err
		}
		created = append(created, *stored)
	}

	return created, nil
}

// Regenerate 幂等地把任务集合推到与当前日期一致的状态。
// existing 必须是该种植的完整任务历史（含已完成），后继日期要从最近一条已完成记录推算。
// 规则：
//  1. 循环类型已有未完成任务时不动它——逾期是展示期的分类，不触发改期；
//     没有未完成任务时恰好补一条，基准取最近一条的 completed_at（已完成）
//     或 due_date（未完成即再生成），首次出现取种植日。
//  2. harvest 从未创建且 today 已达窗口起点时创建一条，due = 种植日 + 窗口终点；
//     窗口已整体错过也照样创建（展示为逾期）——错过的采收是用户需要的信息。
//
// 无间隔完成的情况下连续调用两次，输出完全一致。
func (s *CareScheduler) Regenerate(item db.PlantedItem, care db.PlantCare, existing []db.CareTask, today time.Time) ([]db.CareTask, error) {
	today = dateutil.Normalize(today)
	result := append([]db.CareTask(nil), existing...)

	for _, taskType := range db.RecurringTaskTypes {
		freq := frequencyFor(care, taskType)
		if freq == nil {
			continue
		}
		if hasOpenTask(existing, taskType) {
			continue
		}

		due := dateutil.AddDays(item.DatePlanted, *freq)
		if latest := latestTask(existing, taskType); latest != nil {
			base := latest.DueDate
			if latest.CompletedAt != nil {
				base = *latest.CompletedAt
			}
			due = dateutil.AddDays(base, *freq)
		}

		stored, err := s.store.InsertTask(db.CareTask{
			PlantedItemID: item.ID,
			TaskType:      taskType,
			DueDate:       due,
		})
		if err != nil {
			return nil, err
		}
		result = append(result, *stored)
	}

	if care.HasHarvestWindow() && !hasTask(existing, db.TaskHarvest) {
		opens := dateutil.AddDays(item.DatePlanted, *care.HarvestWindowStartDays)
		if !today.Before(opens) {
			stored, err := s.store.InsertTask(db.CareTask{
				PlantedItemID: item.ID,
				TaskType:      db.TaskHarvest,
				DueDate:       dateutil.AddDays(item.DatePlanted, *care.HarvestWindowEndDays),
			})
			if err != nil {
				return nil, err
			}
			result = append(result, *stored)
		}
	}

	sortTasks(result)
	return result, nil
}

// CompleteTask 标记任务完成，并为循环类型立即生成后继任务一并返回。
// harvest 没有后继，返回 nil。已完成的任务再次完成返回 ErrTaskAlreadyCompleted。
func (s *CareScheduler) CompleteTask(task db.CareTask, care db.PlantCare, today time.Time) (*db.CareTask, error) {
	if task.CompletedAt != nil {
		return nil, fmt.Errorf("%w: task=%d", ErrTaskAlreadyCompleted, task.ID)
	}

	today = dateutil.Normalize(today)
	if _, err := s.store.CompleteTaskRow(task.ID, today); err != nil {
		return nil, err
	}

	if !task.TaskType.Recurring() {
		return nil, nil
	}

	freq := frequencyFor(care, task.TaskType)
	if freq == nil {
		// 图鉴在种植之后取消了该节奏，不再续排
		return nil, nil
	}

	next, err := s.store.InsertTask(db.CareTask{
		PlantedItemID: task.PlantedItemID,
		TaskType:      task.TaskType,
		DueDate:       dateutil.AddDays(today, *freq),
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// ClassifyTask 对任务做只读的展示分类。
// 已完成的任务既不算逾期也不算待办，单独归入 StatusCompleted 由消费方过滤。
func ClassifyTask(task db.CareTask, today time.Time) TaskStatus {
	if task.CompletedAt != nil {
		return StatusCompleted
	}

	today = dateutil.Normalize(today)
	due := dateutil.Normalize(task.DueDate)
	switch {
	case due.Before(today):
		return StatusOverdue
	case due.Equal(today):
		return StatusDueToday
	default:
		return StatusUpcoming
	}
}

// OverdueDays 返回任务逾期天数，未逾期返回 0
func OverdueDays(task db.CareTask, today time.Time) int {
	if ClassifyTask(task, today) != StatusOverdue {
		return 0
	}
	return dateutil.DaysBetween(task.DueDate, today)
}

func frequencyFor(care db.PlantCare, taskType db.TaskType) *int {
	switch taskType {
	case db.TaskWatering:
		return care.WateringFrequencyDays
	case db.TaskFertilizing:
		return care.FertilizingFrequencyDays
	default:
		return nil
	}
}

func hasOpenTask(tasks []db.CareTask, taskType db.TaskType) bool {
	for _, t := range tasks {
		if t.TaskType == taskType && t.Open() {
			return true
		}
	}
	return false
}

func hasTask(tasks []db.CareTask, taskType db.TaskType) bool {
	for _, t := range tasks {
		if t.TaskType == taskType {
			return true
		}
	}
	return false
}

// latestTask 返回该类型下最近的一条记录，以 due_date 为序，平局时取后插入的
func latestTask(tasks []db.CareTask, taskType db.TaskType) *db.CareTask {
	var latest *db.CareTask
	for i := range tasks {
		t := &tasks[i]
		if t.TaskType != taskType {
			continue
		}
		if latest == nil || t.DueDate.After(latest.DueDate) ||
			(t.DueDate.Equal(latest.DueDate) && t.ID > latest.ID) {
			latest = t
		}
	}
	return latest
}

func sortTasks(tasks []db.CareTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].DueDate.Equal(tasks[j].DueDate) {
			return tasks[i].DueDate.Before(tasks[j].DueDate)
		}
		if tasks[i].TaskType != tasks[j].TaskType {
			return tasks[i].TaskType < tasks[j].TaskType
		}
		return tasks[i].ID < tasks[j].ID
	})
}

package service

import (
	"errors"
	"testing"
	"time"

	"github.com/planted/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Plant{}, &db.GardenPlot{}, &db.PlantedItem{}, &db.CareTask{}, &db.Setting{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func intp(n int) *int {
	return &n
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// plantItem 造出一条带养护配置的种植记录及其依赖行
func plantItem(t *testing.T, care db.PlantCare, planted time.Time) db.PlantedItem {
	t.Helper()

	plant := db.Plant{Name: "测试植物-" + planted.Format("20060102-150405.000000000"), Care: care}
	if err := db.DB.Create(&plant).Error; err != nil {
		t.Fatalf("failed to seed plant: %v", err)
	}

	plot := db.GardenPlot{Name: "测试园地", Width: 4, Height: 4}
	if err := db.DB.Create(&plot).Error; err != nil {
		t.Fatalf("failed to seed plot: %v", err)
	}

	item := db.PlantedItem{PlotID: plot.ID, PlantID: plant.ID, Quantity: 1, DatePlanted: planted}
	if err := db.DB.Create(&item).Error; err != nil {
		t.Fatalf("failed to seed planted item: %v", err)
	}
	return item
}

func TestSeedTasksCreatesOneTaskPerFrequency(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{
		WateringFrequencyDays:    intp(3),
		FertilizingFrequencyDays: intp(14),
		HarvestWindowStartDays:   intp(60),
		HarvestWindowEndDays:     intp(75),
	}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	tasks, err := scheduler.SeedTasks(item, care)
	if err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}

	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}

	byType := map[db.TaskType]db.CareTask{}
	for _, task := range tasks {
		byType[task.TaskType] = task
	}

	if got := byType[db.TaskWatering].DueDate; !got.Equal(utcDate(2024, 6, 4)) {
		t.Fatalf("watering due date = %v, want 2024-06-04", got)
	}
	if got := byType[db.TaskFertilizing].DueDate; !got.Equal(utcDate(2024, 6, 15)) {
		t.Fatalf("fertilizing due date = %v, want 2024-06-15", got)
	}
	if _, ok := byType[db.TaskHarvest]; ok {
		t.Fatal("harvest task must be deferred until the window opens")
	}
}

func TestSeedTasksEmptyCareConfig(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	scheduler := NewCareScheduler(NewGardenStore(db.DB))
	item := plantItem(t, db.PlantCare{}, utcDate(2024, 6, 1))

	if _, err := scheduler.SeedTasks(item, db.PlantCare{}); !errors.Is(err, ErrCareConfigMissing) {
		t.Fatalf("expected ErrCareConfigMissing, got %v", err)
	}
}

func TestSeedTasksHarvestOnlyCreatesNothingYet(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	scheduler := NewCareScheduler(NewGardenStore(db.DB))
	care := db.PlantCare{HarvestWindowStartDays: intp(30), HarvestWindowEndDays: intp(45)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	tasks, err := scheduler.SeedTasks(item, care)
	if err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks at seed time, got %d", len(tasks))
	}
}

func TestRegenerateIsIdempotent(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{WateringFrequencyDays: intp(3), FertilizingFrequencyDays: intp(7)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	if _, err := scheduler.SeedTasks(item, care); err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}

	today := utcDate(2024, 6, 10)

	existing, err := store.ListTasks(item.ID)
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	first, err := scheduler.Regenerate(item, care, existing, today)
	if err != nil {
		t.Fatalf("first Regenerate returned error: %v", err)
	}

	existing, err = store.ListTasks(item.ID)
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	second, err := scheduler.Regenerate(item, care, existing, today)
	if err != nil {
		t.Fatalf("second Regenerate returned error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("regenerate not idempotent: %d vs %d tasks", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || !first[i].DueDate.Equal(second[i].DueDate) {
			t.Fatalf("task %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// 规格场景：浇水频率 3 天，2024-06-01 种植。到 06-06 再生成不应改期也不应复制，
// 完成后立即得到 06-09 的后继任务。
func TestOverdueOpenTaskIsNotRescheduled(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{WateringFrequencyDays: intp(3)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	seeded, err := scheduler.SeedTasks(item, care)
	if err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}
	if len(seeded) != 1 || !seeded[0].DueDate.Equal(utcDate(2024, 6, 4)) {
		t.Fatalf("unexpected seed result: %+v", seeded)
	}

	today := utcDate(2024, 6, 6)
	tasks, err := scheduler.Regenerate(item, care, seeded, today)
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected single open task, got %d", len(tasks))
	}
	if !tasks[0].DueDate.Equal(utcDate(2024, 6, 4)) {
		t.Fatalf("open task was rescheduled to %v", tasks[0].DueDate)
	}
	if got := ClassifyTask(tasks[0], today); got != StatusOverdue {
		t.Fatalf("expected overdue classification, got %s", got)
	}

	next, err := scheduler.CompleteTask(tasks[0], care, today)
	if err != nil {
		t.Fatalf("CompleteTask returned error: %v", err)
	}
	if next == nil {
		t.Fatal("expected successor task")
	}
	if !next.DueDate.Equal(utcDate(2024, 6, 9)) {
		t.Fatalf("successor due %v, want 2024-06-09", next.DueDate)
	}
}

func TestRegenerateCreatesSuccessorForCompletedTask(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{WateringFrequencyDays: intp(5)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	seeded, err := scheduler.SeedTasks(item, care)
	if err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}

	// 绕过 CompleteTask 直接落库，模拟只有历史、没有未完成任务的状态
	if _, err := store.CompleteTaskRow(seeded[0].ID, utcDate(2024, 6, 7)); err != nil {
		t.Fatalf("CompleteTaskRow returned error: %v", err)
	}

	existing, err := store.ListTasks(item.ID)
	if err != nil {
		t.Fatalf("ListTasks returned error: %v", err)
	}
	tasks, err := scheduler.Regenerate(item, care, existing, utcDate(2024, 6, 8))
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}

	var open []db.CareTask
	for _, task := range tasks {
		if task.Open() {
			open = append(open, task)
		}
	}
	if len(open) != 1 {
		t.Fatalf("expected exactly one open task, got %d", len(open))
	}
	// 基准是 completed_at(06-07) 而非原 due_date(06-06)
	if !open[0].DueDate.Equal(utcDate(2024, 6, 12)) {
		t.Fatalf("successor due %v, want 2024-06-12", open[0].DueDate)
	}
}

// 规格场景：采收窗口 60~75 天，2024-04-01 种植。
// 第 49 天不创建，第 70 天创建且 due 为第 75 天（2024-06-15）。
func TestHarvestTaskAppearsWhenWindowOpens(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{HarvestWindowStartDays: intp(60), HarvestWindowEndDays: intp(75)}
	item := plantItem(t, care, utcDate(2024, 4, 1))

	tasks, err := scheduler.Regenerate(item, care, nil, utcDate(2024, 5, 20))
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks before window opens, got %d", len(tasks))
	}

	tasks, err = scheduler.Regenerate(item, care, nil, utcDate(2024, 6, 10))
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].TaskType != db.TaskHarvest {
		t.Fatalf("expected single harvest task, got %+v", tasks)
	}
	if !tasks[0].DueDate.Equal(utcDate(2024, 6, 15)) {
		t.Fatalf("harvest due %v, want 2024-06-15", tasks[0].DueDate)
	}
}

func TestMissedHarvestWindowStillCreatesOverdueTask(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{HarvestWindowStartDays: intp(60), HarvestWindowEndDays: intp(75)}
	item := plantItem(t, care, utcDate(2024, 4, 1))

	today := utcDate(2024, 8, 1)
	tasks, err := scheduler.Regenerate(item, care, nil, today)
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].TaskType != db.TaskHarvest {
		t.Fatalf("expected harvest task even after window closed, got %+v", tasks)
	}
	if got := ClassifyTask(tasks[0], today); got != StatusOverdue {
		t.Fatalf("missed harvest should classify overdue, got %s", got)
	}

	// 再生成不会出现第二条采收任务
	tasks, err = scheduler.Regenerate(item, care, tasks, today)
	if err != nil {
		t.Fatalf("second Regenerate returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("harvest task duplicated: %d", len(tasks))
	}
}

func TestCompleteTaskRejectsDoubleCompletion(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{WateringFrequencyDays: intp(3)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	seeded, err := scheduler.SeedTasks(item, care)
	if err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}

	today := utcDate(2024, 6, 4)
	if _, err := scheduler.CompleteTask(seeded[0], care, today); err != nil {
		t.Fatalf("CompleteTask returned error: %v", err)
	}

	// 用已完成的行再次提交
	var done db.CareTask
	if err := db.DB.First(&done, seeded[0].ID).Error; err != nil {
		t.Fatalf("failed to reload task: %v", err)
	}
	if _, err := scheduler.CompleteTask(done, care, today); !errors.Is(err, ErrTaskAlreadyCompleted) {
		t.Fatalf("expected ErrTaskAlreadyCompleted, got %v", err)
	}

	// 绕过内存检查走存储层，同样必须拒绝
	if _, err := store.CompleteTaskRow(seeded[0].ID, today); !errors.Is(err, ErrTaskAlreadyCompleted) {
		t.Fatalf("expected ErrTaskAlreadyCompleted from store, got %v", err)
	}
}

func TestCompleteHarvestHasNoSuccessor(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{HarvestWindowStartDays: intp(10), HarvestWindowEndDays: intp(20)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	tasks, err := scheduler.Regenerate(item, care, nil, utcDate(2024, 6, 15))
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected harvest task, got %d", len(tasks))
	}

	next, err := scheduler.CompleteTask(tasks[0], care, utcDate(2024, 6, 16))
	if err != nil {
		t.Fatalf("CompleteTask returned error: %v", err)
	}
	if next != nil {
		t.Fatalf("harvest must not produce a successor, got %+v", next)
	}
}

func TestStoreRejectsDuplicateOpenTask(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	care := db.PlantCare{WateringFrequencyDays: intp(3)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	first := db.CareTask{PlantedItemID: item.ID, TaskType: db.TaskWatering, DueDate: utcDate(2024, 6, 4)}
	if _, err := store.InsertTask(first); err != nil {
		t.Fatalf("InsertTask returned error: %v", err)
	}

	dup := db.CareTask{PlantedItemID: item.ID, TaskType: db.TaskWatering, DueDate: utcDate(2024, 6, 7)}
	if _, err := store.InsertTask(dup); !errors.Is(err, ErrDuplicateOpenTask) {
		t.Fatalf("expected ErrDuplicateOpenTask, got %v", err)
	}
}

func TestClassifyTask(t *testing.T) {
	today := utcDate(2024, 6, 10)
	done := utcDate(2024, 6, 9)

	tests := []struct {
		name     string
		task     db.CareTask
		expected TaskStatus
	}{
		{name: "overdue", task: db.CareTask{DueDate: utcDate(2024, 6, 8)}, expected: StatusOverdue},
		{name: "due today", task: db.CareTask{DueDate: today}, expected: StatusDueToday},
		{name: "upcoming", task: db.CareTask{DueDate: utcDate(2024, 6, 12)}, expected: StatusUpcoming},
		{name: "completed excluded", task: db.CareTask{DueDate: utcDate(2024, 6, 8), CompletedAt: &done}, expected: StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyTask(tt.task, today); got != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}

	if got := OverdueDays(db.CareTask{DueDate: utcDate(2024, 6, 8)}, today); got != 2 {
		t.Fatalf("expected 2 overdue days, got %d", got)
	}
}

// 依次按期完成时，循环任务的 due_date 严格递增
func TestSuccessiveDueDatesAreMonotonic(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewGardenStore(db.DB)
	scheduler := NewCareScheduler(store)

	care := db.PlantCare{WateringFrequencyDays: intp(4)}
	item := plantItem(t, care, utcDate(2024, 6, 1))

	seeded, err := scheduler.SeedTasks(item, care)
	if err != nil {
		t.Fatalf("SeedTasks returned error: %v", err)
	}

	current := seeded[0]
	previousDue := current.DueDate
	for i := 0; i < 4; i++ {
		next, err := scheduler.CompleteTask(current, care, current.DueDate)
		if err != nil {
			t.Fatalf("CompleteTask round %d returned error: %v", i, err)
		}
		if next == nil {
			t.Fatalf("round %d: expected successor", i)
		}
		if !next.DueDate.After(previousDue) {
			t.Fatalf("round %d: due %v not after %v", i, next.DueDate, previousDue)
		}
		previousDue = next.DueDate
		current = *next
	}
}

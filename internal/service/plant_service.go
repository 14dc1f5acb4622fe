package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/planted/internal/db"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

var (
	// ErrPlantNotFound 在指定植物不存在时返回
	ErrPlantNotFound = errors.New("plant not found")
	// ErrPlantNameTaken 在图鉴名称重复时返回
	ErrPlantNameTaken = errors.New("plant name already exists")
	// ErrPlantInvalidCare 当养护配置违反约束时返回
	ErrPlantInvalidCare = errors.New("invalid plant care configuration")
	// ErrPlantInUse 在植物仍被种植引用、无法删除时返回
	ErrPlantInUse = errors.New("plant is referenced by planted items")
)

var (
	careNotesMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)
	careNotesSanitizer = bluemonday.UGCPolicy()
)

// waterNeedsFrequency 把传统浇水需求档位换算成天数节奏
var waterNeedsFrequency = map[string]int{"low": 7, "medium": 3, "high": 2}

// PlantService 负责植物图鉴的增删改查与导入
type PlantService struct {
	db *gorm.DB
}

// PlantFilter 描述图鉴列表过滤条件
type PlantFilter struct {
	Search    string
	PlantType string
	Season    string
}

// PlantInput 定义创建/更新植物时可配置字段
type PlantInput struct {
	Name              string
	ScientificName    string
	PlantType         string
	Season            string
	DaysToGermination int
	DaysToMaturity    int
	SpacingInches     int
	SunRequirements   string
	CareNotes         string
	ImageURL          string
	Care              db.PlantCare
}

// NewPlantService 构造 PlantService
func NewPlantService(gdb *gorm.DB) *PlantService {
	return &PlantService{db: gdb}
}

// List 返回图鉴集合，支持基本筛选
func (s *PlantService) List(filter PlantFilter) ([]db.Plant, error) {
	var plants []db.Plant

	query := s.db.Model(&db.Plant{})

	if filter.PlantType != "" {
		query = query.Where("plant_type = ?", filter.PlantType)
	}
	if filter.Season != "" {
		query = query.Where("season = ?", filter.Season)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("name LIKE ? OR scientific_name LIKE ?", like, like)
	}

	if err := query.Order("name ASC").Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("list plants: %w", err)
	}

	return plants, nil
}

// Get 根据 ID 获取植物
func (s *PlantService) Get(id uint) (*db.Plant, error) {
	var plant db.Plant
	if err := s.db.First(&plant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return &plant, nil
}

// Create 新建自定义植物
func (s *PlantService) Create(input PlantInput) (*db.Plant, error) {
	if err := validatePlantInput(input); err != nil {
		return nil, err
	}

	plant := db.Plant{
		Name:              strings.TrimSpace(input.Name),
		ScientificName:    strings.TrimSpace(input.ScientificName),
		PlantType:         strings.TrimSpace(input.PlantType),
		Season:            strings.ToLower(strings.TrimSpace(input.Season)),
		DaysToGermination: input.DaysToGermination,
		DaysToMaturity:    input.DaysToMaturity,
		SpacingInches:     input.SpacingInches,
		SunRequirements:   strings.TrimSpace(input.SunRequirements),
		CareNotes:         input.CareNotes,
		ImageURL:          strings.TrimSpace(input.ImageURL),
		IsCustom:          true,
		Care:              input.Care,
	}

	if err := s.db.Create(&plant).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrPlantNameTaken, plant.Name)
		}
		return nil, fmt.Errorf("create plant: %w", err)
	}
	return &plant, nil
}

// Update 更新植物；养护配置的修改只影响后续生成的任务
func (s *PlantService) Update(id uint, input PlantInput) (*db.Plant, error) {
	if err := validatePlantInput(input); err != nil {
		return nil, err
	}

	var existing db.Plant
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlantNotFound
		}
		return nil, fmt.Errorf("find plant: %w", err)
	}

	existing.Name = strings.TrimSpace(input.Name)
	existing.ScientificName = strings.TrimSpace(input.ScientificName)
	existing.PlantType = strings.TrimSpace(input.PlantType)
	existing.Season = strings.ToLower(strings.TrimSpace(input.Season))
	existing.DaysToGermination = input.DaysToGermination
	existing.DaysToMaturity = input.DaysToMaturity
	existing.SpacingInches = input.SpacingInches
	existing.SunRequirements = strings.TrimSpace(input.SunRequirements)
	existing.CareNotes = input.CareNotes
	existing.ImageURL = strings.TrimSpace(input.ImageURL)
	existing.Care = input.Care

	if err := s.db.Save(&existing).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("%w: %s", ErrPlantNameTaken, existing.Name)
		}
		return nil, fmt.Errorf("update plant: %w", err)
	}
	return &existing, nil
}

// Delete 删除植物，仍被种植引用时拒绝
func (s *PlantService) Delete(id uint) error {
	var count int64
	if err := s.db.Model(&db.PlantedItem{}).Where("plant_id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("count references: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d planted items", ErrPlantInUse, count)
	}

	if err := s.db.Delete(&db.Plant{}, id).Error; err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	return nil
}

// plantImportEntry 对应图鉴 JSON 导入格式的一条记录
type plantImportEntry struct {
	Name           string `json:"name"`
	ScientificName string `json:"scientific_name"`
	PlantType      string `json:"plant_type"`
	Growing        struct {
		Season            string `json:"season"`
		DaysToGermination int    `json:"days_to_germination"`
		DaysToMaturity    int    `json:"days_to_maturity"`
		SpacingInches     int    `json:"spacing_inches"`
	} `json:"growing"`
	Care struct {
		SunRequirements          string `json:"sun_requirements"`
		WaterNeeds               string `json:"water_needs"`
		CareNotes                string `json:"care_notes"`
		FertilizingFrequencyDays *int   `json:"fertilizing_frequency_days"`
		HarvestWindowStartDays   *int   `json:"harvest_window_start_days"`
		HarvestWindowEndDays     *int   `json:"harvest_window_end_days"`
	} `json:"care"`
}

// ImportJSON 从 JSON 数组导入图鉴条目，按名称去重，返回新建数量。
// 浇水节奏可由 water_needs 档位换算；采收窗口缺省取成熟期起的两周。
func (s *PlantService) ImportJSON(r io.Reader) (int, error) {
	var payload struct {
		Plants []plantImportEntry `json:"plants"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode plant import: %w", err)
	}

	created := 0
	for _, entry := range payload.Plants {
		input := PlantInput{
			Name:              entry.Name,
			ScientificName:    entry.ScientificName,
			PlantType:         entry.PlantType,
			Season:            entry.Growing.Season,
			DaysToGermination: entry.Growing.DaysToGermination,
			DaysToMaturity:    entry.Growing.DaysToMaturity,
			SpacingInches:     entry.Growing.SpacingInches,
			SunRequirements:   entry.Care.SunRequirements,
			CareNotes:         entry.Care.CareNotes,
			Care: db.PlantCare{
				WateringFrequencyDays:    WaterNeedsFrequency(entry.Care.WaterNeeds),
				FertilizingFrequencyDays: entry.Care.FertilizingFrequencyDays,
				HarvestWindowStartDays:   entry.Care.HarvestWindowStartDays,
				HarvestWindowEndDays:     entry.Care.HarvestWindowEndDays,
			},
		}
		if !input.Care.HasHarvestWindow() && entry.Growing.DaysToMaturity > 0 {
			start := entry.Growing.DaysToMaturity
			end := start + 14
			input.Care.HarvestWindowStartDays = &start
			input.Care.HarvestWindowEndDays = &end
		}

		var existing db.Plant
		err := s.db.Where("name = ?", strings.TrimSpace(entry.Name)).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("check plant %s: %w", entry.Name, err)
		}

		if _, err := s.Create(input); err != nil {
			return created, fmt.Errorf("import plant %s: %w", entry.Name, err)
		}
		created++
	}

	return created, nil
}

// WaterNeedsFrequency 把 low/medium/high 换算成浇水频率，未知档位返回 nil
func WaterNeedsFrequency(waterNeeds string) *int {
	freq, ok := waterNeedsFrequency[strings.ToLower(strings.TrimSpace(waterNeeds))]
	if !ok {
		return nil
	}
	return &freq
}

// RenderCareNotes 将养护笔记的 Markdown 渲染为净化后的 HTML
func RenderCareNotes(notes string) template.HTML {
	var buf bytes.Buffer
	if err := careNotesMarkdown.Convert([]byte(notes), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(notes))
	}
	return template.HTML(careNotesSanitizer.SanitizeBytes(buf.Bytes()))
}

func validatePlantInput(input PlantInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("plant name is required")
	}
	return ValidateCare(input.Care)
}

// ValidateCare 在构造边界校验养护配置的不变量：
// 频率必须为正整数；采收窗口要么都缺省，要么满足 end >= start >= 0
func ValidateCare(care db.PlantCare) error {
	if care.WateringFrequencyDays != nil && *care.WateringFrequencyDays <= 0 {
		return fmt.Errorf("%w: watering frequency must be positive", ErrPlantInvalidCare)
	}
	if care.FertilizingFrequencyDays != nil && *care.FertilizingFrequencyDays <= 0 {
		return fmt.Errorf("%w: fertilizing frequency must be positive", ErrPlantInvalidCare)
	}

	if (care.HarvestWindowStartDays == nil) != (care.HarvestWindowEndDays == nil) {
		return fmt.Errorf("%w: harvest window requires both start and end", ErrPlantInvalidCare)
	}
	if care.HasHarvestWindow() {
		if *care.HarvestWindowStartDays < 0 {
			return fmt.Errorf("%w: harvest window start must not be negative", ErrPlantInvalidCare)
		}
		if *care.HarvestWindowEndDays < *care.HarvestWindowStartDays {
			return fmt.Errorf("%w: harvest window end before start", ErrPlantInvalidCare)
		}
	}

	return nil
}

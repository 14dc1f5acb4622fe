package service

import (
	"errors"
	"fmt"

	"github.com/planted/internal/db"
	"gorm.io/gorm"
)

// defaultPlant 描述内置图鉴的一条种子数据
type defaultPlant struct {
	name            string
	scientificName  string
	plantType       string
	season          string
	germination     int
	maturity        int
	spacing         int
	sun             string
	waterNeeds      string
	fertilizingDays int
	harvestStart    int
	harvestEnd      int
	careNotes       string
}

// 内置图鉴取自常见家庭菜园作物，养护节奏按园艺常识粗调
// waterNeeds 档位沿用 low/medium/high，换算见 WaterNeedsFrequency
var defaultPlants = []defaultPlant{
	{"Lettuce", "Lactuca sativa", "vegetable", "spring", 7, 50, 8, "partial sun", "high", 21, 45, 60, "喜凉爽，夏季易抽薹。**勤采外叶**可延长采收期。"},
	{"Spinach", "Spinacia oleracea", "vegetable", "spring", 7, 40, 4, "partial sun", "medium", 21, 35, 50, "耐寒性强，春秋两季均可播种。"},
	{"Radish", "Raphanus sativus", "vegetable", "spring", 4, 25, 2, "full sun", "medium", 0, 22, 32, "生长极快，适合间作。过晚采收会木质化。"},
	{"Carrot", "Daucus carota", "vegetable", "spring", 14, 70, 3, "full sun", "medium", 28, 65, 90, "土壤需疏松深厚，忌新鲜厩肥。"},
	{"Kale", "Brassica oleracea", "vegetable", "fall", 7, 55, 12, "full sun", "medium", 21, 50, 120, "霜后风味更佳，可持续采收外叶越冬。"},
	{"Tomato", "Solanum lycopersicum", "vegetable", "summer", 7, 75, 24, "full sun", "high", 14, 70, 100, "需支架与整枝。*浇水忌忽干忽湿*，否则易裂果。"},
	{"Pepper", "Capsicum annuum", "vegetable", "summer", 10, 80, 18, "full sun", "medium", 14, 75, 110, "喜温怕涝，夜温低于 55°F 会落花。"},
	{"Cucumber", "Cucumis sativus", "vegetable", "summer", 6, 60, 12, "full sun", "high", 14, 55, 75, "结果期需水量大，及时采收促进连续坐果。"},
	{"Bush Bean", "Phaseolus vulgaris", "vegetable", "summer", 8, 55, 4, "full sun", "medium", 0, 50, 65, "自肥性好，通常无需追肥。"},
	{"Broccoli", "Brassica oleracea var. italica", "vegetable", "fall", 7, 65, 18, "full sun", "high", 21, 60, 80, "主花球采后保留侧枝可续收侧花球。"},
	{"Basil", "Ocimum basilicum", "herb", "summer", 7, 60, 10, "full sun", "medium", 28, 50, 120, "勤摘心防开花，开花后叶片变苦。"},
	{"Garlic", "Allium sativum", "vegetable", "winter", 14, 240, 4, "full sun", "low", 35, 230, 260, "秋植越冬，叶枯三成时起收。"},
}

// SeedDefaultPlants 幂等写入内置图鉴：按名称跳过已存在的条目，返回新建数量
func SeedDefaultPlants(gdb *gorm.DB) (int, error) {
	created := 0
	for _, seed := range defaultPlants {
		var existing db.Plant
		err := gdb.Where("name = ?", seed.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("check default plant %s: %w", seed.name, err)
		}

		care := db.PlantCare{
			WateringFrequencyDays:  WaterNeedsFrequency(seed.waterNeeds),
			HarvestWindowStartDays: intPtr(seed.harvestStart),
			HarvestWindowEndDays:   intPtr(seed.harvestEnd),
		}
		if seed.fertilizingDays > 0 {
			care.FertilizingFrequencyDays = intPtr(seed.fertilizingDays)
		}

		plant := db.Plant{
			Name:              seed.name,
			ScientificName:    seed.scientificName,
			PlantType:         seed.plantType,
			Season:            seed.season,
			DaysToGermination: seed.germination,
			DaysToMaturity:    seed.maturity,
			SpacingInches:     seed.spacing,
			SunRequirements:   seed.sun,
			CareNotes:         seed.careNotes,
			IsCustom:          false,
			Care:              care,
		}
		if err := gdb.Create(&plant).Error; err != nil {
			return created, fmt.Errorf("seed default plant %s: %w", seed.name, err)
		}
		created++
	}
	return created, nil
}

func intPtr(n int) *int {
	return &n
}

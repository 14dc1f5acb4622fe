package db

import "gorm.io/gorm"

// PlantCare 描述一个植物品种的养护节奏
// 频率字段为 nil 表示该品种没有对应的周期性任务
// 采收窗口以种植日为基准的天数区间描述，要求 end >= start >= 0
// 字段取值的合法性在 service 层创建/更新入口校验
type PlantCare struct {
	WateringFrequencyDays    *int
	FertilizingFrequencyDays *int
	HarvestWindowStartDays   *int
	HarvestWindowEndDays     *int
}

// Schedulable 判断该养护配置是否能产生任何任务
func (c PlantCare) Schedulable() bool {
	return c.WateringFrequencyDays != nil ||
		c.FertilizingFrequencyDays != nil ||
		c.HarvestWindowStartDays != nil
}

// HasHarvestWindow 判断采收窗口是否完整配置
func (c PlantCare) HasHarvestWindow() bool {
	return c.HarvestWindowStartDays != nil && c.HarvestWindowEndDays != nil
}

// Plant 定义植物图鉴条目
// Season 为推荐种植季节（spring/summer/fall/winter），用于季节推荐
// CareNotes 为 Markdown 文本，展示时经 goldmark 渲染并消毒
// IsCustom 区分内置图鉴与用户自建品种
type Plant struct {
	gorm.Model
	Name              string `gorm:"unique;not null"`
	ScientificName    string
	PlantType         string
	Season            string
	DaysToGermination int
	DaysToMaturity    int
	SpacingInches     int
	SunRequirements   string
	CareNotes         string
	ImageURL          string
	IsCustom          bool
	Care              PlantCare `gorm:"embedded;embeddedPrefix:care_"`
}

package service

import (
	"fmt"
	"time"

	"github.com/planted/internal/dateutil"
	"github.com/planted/internal/db"
	"gorm.io/gorm"
)

// SeasonalRecommendation 汇总当季适种与下季备耕的图鉴条目
type SeasonalRecommendation struct {
	Season     dateutil.Season
	NextSeason dateutil.Season
	PlantNow   []db.Plant
	PrepareFor []db.Plant
}

// RecommendService 基于日期的季节归属给出种植建议
// 与调度器共用 dateutil 的季节划分，同样只支持北半球
type RecommendService struct {
	db *gorm.DB
}

// NewRecommendService 构造 RecommendService
func NewRecommendService(gdb *gorm.DB) *RecommendService {
	return &RecommendService{db: gdb}
}

// ForDate 返回给定日期的季节推荐
func (s *RecommendService) ForDate(date time.Time) (*SeasonalRecommendation, error) {
	season := dateutil.SeasonForDate(date)
	next := dateutil.NextSeason(season)

	plantNow, err := s.plantsForSeason(season)
	if err != nil {
		return nil, err
	}
	prepareFor, err := s.plantsForSeason(next)
	if err != nil {
		return nil, err
	}

	return &SeasonalRecommendation{
		Season:     season,
		NextSeason: next,
		PlantNow:   plantNow,
		PrepareFor: prepareFor,
	}, nil
}

func (s *RecommendService) plantsForSeason(season dateutil.Season) ([]db.Plant, error) {
	var plants []db.Plant
	if err := s.db.Where("season = ?", string(season)).
		Order("name ASC").
		Find(&plants).Error; err != nil {
		return nil, fmt.Errorf("list plants for season %s: %w", season, err)
	}
	return plants, nil
}

package service

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/planted/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SiteSettings 描述后台可配置的站点与园地位置信息。
// 坐标供天气查询使用，未配置时由调用方回退到环境变量中的默认值。
type SiteSettings struct {
	SiteName     string
	LocationName string
	Latitude     *float64
	Longitude    *float64
}

// SiteSettingsInput 用于更新站点设置。
type SiteSettingsInput struct {
	SiteName     string
	LocationName string
	Latitude     string
	Longitude    string
}

// SettingService 提供站点设置的读取与更新能力。
type SettingService struct {
	db *gorm.DB
}

// NewSettingService 构造 SettingService。
func NewSettingService(gdb *gorm.DB) *SettingService {
	return &SettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyLocationName,
	db.SettingKeyLatitude,
	db.SettingKeyLongitude,
}

// GetSettings 读取站点设置，如未设置将返回默认值。
func (s *SettingService) GetSettings() (SiteSettings, error) {
	result := SiteSettings{SiteName: "Planted"}

	var records []db.Setting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if strings.TrimSpace(record.Value) != "" {
				result.SiteName = record.Value
			}
		case db.SettingKeyLocationName:
			result.LocationName = record.Value
		case db.SettingKeyLatitude:
			if v, err := strconv.ParseFloat(strings.TrimSpace(record.Value), 64); err == nil {
				result.Latitude = &v
			}
		case db.SettingKeyLongitude:
			if v, err := strconv.ParseFloat(strings.TrimSpace(record.Value), 64); err == nil {
				result.Longitude = &v
			}
		}
	}

	return result, nil
}

// UpdateSettings 保存站点设置，未填写站点名称时回退默认值。
// 坐标字段传空串表示清除，交回默认坐标。
func (s *SettingService) UpdateSettings(input SiteSettingsInput) (SiteSettings, error) {
	sanitized := map[string]string{
		db.SettingKeySiteName:     strings.TrimSpace(input.SiteName),
		db.SettingKeyLocationName: strings.TrimSpace(input.LocationName),
		db.SettingKeyLatitude:     strings.TrimSpace(input.Latitude),
		db.SettingKeyLongitude:    strings.TrimSpace(input.Longitude),
	}
	if sanitized[db.SettingKeySiteName] == "" {
		sanitized[db.SettingKeySiteName] = "Planted"
	}

	for _, key := range []string{db.SettingKeyLatitude, db.SettingKeyLongitude} {
		if sanitized[key] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(sanitized[key], 64); err != nil {
			return SiteSettings{}, fmt.Errorf("invalid coordinate for %s: %q", key, sanitized[key])
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, key := range settingKeys {
			if err := upsertSetting(tx, key, sanitized[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SiteSettings{}, fmt.Errorf("update settings: %w", err)
	}

	return s.GetSettings()
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.Setting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

package db

import "gorm.io/gorm"

// 设置键名集中定义，避免散落的魔法字符串
const (
	SettingKeySiteName     = "site_name"
	SettingKeyLocationName = "location_name"
	SettingKeyLatitude     = "latitude"
	SettingKeyLongitude    = "longitude"
)

// Setting 以键值对形式存放站点与园地的全局配置
type Setting struct {
	gorm.Model
	Key   string `gorm:"uniqueIndex;not null"`
	Value string
}

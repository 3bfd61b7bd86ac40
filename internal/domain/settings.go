package domain

import (
	"time"

	"gorm.io/datatypes"
)

// SettingsKeySite is the row holding site-wide admin settings.
const SettingsKeySite = "site"

// Setting is a keyed JSON document.
type Setting struct {
	Key       string         `gorm:"column:setting_key;primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"column:value;type:jsonb;not null" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

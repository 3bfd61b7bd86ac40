package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Media is a photo or clip attached to a drop. Only approved media is public.
type Media struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	DropID    uuid.UUID      `gorm:"column:drop_id;type:uuid;not null;index" json:"drop_id"`
	URL       string         `gorm:"column:url;not null" json:"url"`
	Type      string         `gorm:"column:type;not null" json:"type"`
	Caption   string         `gorm:"column:caption" json:"caption"`
	Approved  bool           `gorm:"column:approved;not null" json:"approved"`
	Meta      datatypes.JSON `gorm:"column:meta;type:jsonb" json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Media) TableName() string {
	return "media"
}

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

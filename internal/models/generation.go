package models

import (
	"time"

	"gorm.io/gorm"
)

// Generation is a persisted generation result
type Generation struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	RequestID string `gorm:"index" json:"request_id"`
	UserID    string `gorm:"index" json:"user_id"`

	Strategy string `gorm:"not null;index" json:"strategy"`
	Seed     int64  `gorm:"not null" json:"seed"`

	Harmony   HarmonyContext     `gorm:"type:jsonb;serializer:json" json:"harmony"`
	Pitches   []int              `gorm:"type:jsonb;serializer:json" json:"pitches"`
	Durations []float64          `gorm:"type:jsonb;serializer:json" json:"durations"`
	Metrics   map[string]float64 `gorm:"type:jsonb;serializer:json" json:"metrics"`
	Stats     DebugStats         `gorm:"type:jsonb;serializer:json" json:"stats"`

	Score         float64  `json:"score"`
	Status        string   `gorm:"index" json:"status"` // "accepted" or "fallback"
	Attempts      int      `json:"attempts"`
	ConstraintMet bool     `json:"constraint_met"`
	MeanPitch     *float64 `json:"mean_pitch,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName pins the table name
func (Generation) TableName() string {
	return "generations"
}

// Melody returns the stored pitch and duration sequences
func (g *Generation) Melody() Melody {
	return Melody{Pitches: g.Pitches, Durations: g.Durations}
}

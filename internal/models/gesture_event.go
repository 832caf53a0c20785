package models

import (
	"time"

	"gorm.io/gorm"
)

// GestureEvent is one dispatched gesture in the usage log.
type GestureEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Timestamp     time.Time      `gorm:"not null;index" json:"timestamp"`
	RunID         string         `gorm:"not null;index" json:"run_id"`
	Direction     string         `gorm:"not null;index" json:"direction"` // "left", "right", "up", "down"
	Action        string         `gorm:"not null;index" json:"action"`
	Outcome       string         `gorm:"not null" json:"outcome"` // "switched", "boundary", "fired", "failed", "none"
	DisplayServer string         `gorm:"not null" json:"display_server"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

type ActionSummary struct {
	Action     string  `json:"action"`
	EventCount int     `json:"event_count"`
	Switched   int     `json:"switched"`
	Boundary   int     `json:"boundary"`
	Failed     int     `json:"failed"`
	Percentage float64 `json:"percentage,omitempty"`
}

type DirectionSummary struct {
	Direction  string  `json:"direction"`
	EventCount int     `json:"event_count"`
	Percentage float64 `json:"percentage,omitempty"`
}

type ReportPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Type  string    `json:"type"` // "day", "week", "month"
}

type Report struct {
	Period       ReportPeriod       `json:"period"`
	Actions      []ActionSummary    `json:"actions"`
	Directions   []DirectionSummary `json:"directions"`
	TotalEvents  int                `json:"total_events"`
	BoundaryHits int                `json:"boundary_hits"`
	Failures     int                `json:"failures"`
	GeneratedAt  time.Time          `json:"generated_at"`
}

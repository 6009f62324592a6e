package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Course struct {
	ID            uuid.UUID `gorm:"primaryKey" json:"id"`
	InstituteID   uuid.UUID `gorm:"not null;index" json:"institute_id"`
	Name          string    `gorm:"not null" json:"name"`
	Description   string    `json:"description"`
	DurationWeeks int       `json:"duration_weeks"`
	Fee           float64   `json:"fee"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CourseRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	DurationWeeks int     `json:"duration_weeks"`
	Fee           float64 `json:"fee"`
	IsActive      *bool   `json:"is_active"`
}

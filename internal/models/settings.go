package models

import "time"

// PlatformSettingsID is the primary key of the single settings row.
const PlatformSettingsID = 1

type PlatformSettings struct {
	ID          uint      `gorm:"primarykey" json:"-"`
	TestingMode bool      `gorm:"default:false;not null" json:"testing_mode"`
	UpdatedAt   time.Time `json:"updated_at"`
}

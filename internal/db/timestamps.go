package db

import "time"

// Timestamps is embedded by every record that tracks creation and modification
// times. gorm maintains both columns; callers never set them.
type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

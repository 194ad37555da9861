package models

import (
	"time"

	"gorm.io/gorm"
)

// InternalMessage is an entry in the owner's inbox.
type InternalMessage struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	Title   string    `gorm:"size:255;not null" json:"title"`
	Content string    `gorm:"type:text" json:"content"`
	Link    string    `gorm:"size:512" json:"link"`
	Read    bool      `gorm:"column:is_read;index;not null;default:false" json:"read"`
	Time    time.Time `gorm:"index;not null" json:"time"`
}

// BeforeCreate stamps the creation time when the caller left it empty.
func (m *InternalMessage) BeforeCreate(tx *gorm.DB) error {
	if m.Time.IsZero() {
		m.Time = time.Now()
	}
	return nil
}

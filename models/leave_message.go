package models

import "time"

// MessageStatus gates public visibility of a leave message.
type MessageStatus int

const (
	StatusPending   MessageStatus = 0
	StatusPublished MessageStatus = 1
)

// LeaveMessage is a board comment. Threads are stored flat: ParentID points
// at the parent comment and is 0 for a root.
type LeaveMessage struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	ParentID   uint          `gorm:"index;not null;default:0" json:"parentId"`
	NickName   string        `gorm:"size:36;not null" json:"nickName"`
	QQorWechat string        `gorm:"size:32" json:"qqOrWechat"`
	Email      string        `gorm:"size:128;index" json:"email"`
	Content    string        `gorm:"type:text;not null" json:"content"`
	PostDate   time.Time     `gorm:"index;not null" json:"postDate"`
	IP         string        `gorm:"size:45" json:"ip"`
	Location   string        `gorm:"size:255" json:"location"`
	Browser    string        `gorm:"size:255" json:"browser"`
	Status     MessageStatus `gorm:"index;not null;default:0" json:"status"`
	IsMaster   bool          `gorm:"not null;default:false" json:"isMaster"`
}

// IsRoot reports whether m anchors a thread.
func (m *LeaveMessage) IsRoot() bool {
	return m.ParentID == 0
}

// IsPublished reports whether visitors may see m.
func (m *LeaveMessage) IsPublished() bool {
	return m.Status == StatusPublished
}

package controllers

import (
	"time"

	"github.com/cppla/msgboard/models"
	"github.com/cppla/msgboard/utils"
)

// LeaveMessageView is the public shape of a comment. Contact and network
// details are only filled for the owner.
type LeaveMessageView struct {
	ID         uint   `json:"id"`
	ParentID   uint   `json:"parentId"`
	NickName   string `json:"nickName"`
	Content    string `json:"content"`
	PostDate   string `json:"postDate"`
	Location   string `json:"location"`
	Browser    string `json:"browser"`
	Status     int    `json:"status"`
	IsMaster   bool   `json:"isMaster"`
	Email      string `json:"email,omitempty"`
	QQorWechat string `json:"qqOrWechat,omitempty"`
	IP         string `json:"ip,omitempty"`
}

func toLeaveMessageViews(rows []models.LeaveMessage, loc *time.Location, owner bool) []LeaveMessageView {
	out := make([]LeaveMessageView, 0, len(rows))
	for _, m := range rows {
		v := LeaveMessageView{
			ID:       m.ID,
			ParentID: m.ParentID,
			NickName: m.NickName,
			Content:  m.Content,
			PostDate: utils.FormatTime(m.PostDate, loc),
			Location: m.Location,
			Browser:  m.Browser,
			Status:   int(m.Status),
			IsMaster: m.IsMaster,
		}
		if owner {
			v.Email = m.Email
			v.QQorWechat = m.QQorWechat
			v.IP = m.IP
		}
		out = append(out, v)
	}
	return out
}

// InternalMessageView is an inbox entry with its time in the viewer's zone.
type InternalMessageView struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Link    string `json:"link"`
	Read    bool   `json:"read"`
	Time    string `json:"time"`
}

func toInternalMessageView(m models.InternalMessage, loc *time.Location) InternalMessageView {
	return InternalMessageView{
		ID:      m.ID,
		Title:   m.Title,
		Content: m.Content,
		Link:    m.Link,
		Read:    m.Read,
		Time:    utils.FormatTime(m.Time, loc),
	}
}

func toInternalMessageViews(rows []models.InternalMessage, loc *time.Location) []InternalMessageView {
	out := make([]InternalMessageView, 0, len(rows))
	for _, m := range rows {
		out = append(out, toInternalMessageView(m, loc))
	}
	return out
}

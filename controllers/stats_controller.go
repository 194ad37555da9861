package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/middleware"
	"github.com/cppla/msgboard/services"
	"github.com/cppla/msgboard/utils"
)

// StatsController reports board counters.
type StatsController struct {
	messages *services.LeaveMessageService
	inbox    *services.InboxService
}

func NewStatsController(messages *services.LeaveMessageService, inbox *services.InboxService) *StatsController {
	return &StatsController{messages: messages, inbox: inbox}
}

// GetStats returns the published root count; the owner also gets pending and unread counts.
func (s *StatsController) GetStats(ctx *gin.Context) {
	c := ctx.Request.Context()
	var total int64
	if n, err := s.messages.Count(c, services.PublishedRoots()); err == nil {
		total = n
	}
	data := gin.H{"total": total}
	if middleware.IsOwner(ctx) {
		// counters fall back to 0 instead of failing the endpoint
		var pending, unread int64
		if n, err := s.messages.Count(c, services.PendingOnly()); err == nil {
			pending = n
		}
		if n, err := s.inbox.CountUnread(c); err == nil {
			unread = n
		}
		data["pending"] = pending
		data["unread"] = unread
	}
	utils.Success(ctx, data)
}

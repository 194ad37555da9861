package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/services"
	"github.com/cppla/msgboard/utils"
)

// InboxController exposes the owner's internal messages.
type InboxController struct {
	inbox *services.InboxService
}

func NewInboxController(inbox *services.InboxService) *InboxController {
	return &InboxController{inbox: inbox}
}

func (i *InboxController) notFoundOr500(ctx *gin.Context, err error, code int, msg string) {
	if errors.Is(err, services.ErrNotFound) {
		utils.Error(ctx, http.StatusNotFound, 40430, "inbox message not found")
		return
	}
	utils.Sugar.Errorw(msg, "error", err)
	utils.Error(ctx, http.StatusInternalServerError, code, msg)
}

func (i *InboxController) Get(ctx *gin.Context) {
	id, ok := idParam(ctx)
	if !ok {
		return
	}
	m, err := i.inbox.Get(ctx.Request.Context(), id)
	if err != nil {
		i.notFoundOr500(ctx, err, 50030, "failed to load inbox message")
		return
	}
	utils.Success(ctx, toInternalMessageView(*m, viewerLocation(ctx)))
}

func (i *InboxController) Read(ctx *gin.Context) {
	i.setRead(ctx, true)
}

func (i *InboxController) Unread(ctx *gin.Context) {
	i.setRead(ctx, false)
}

func (i *InboxController) setRead(ctx *gin.Context, read bool) {
	id, ok := idParam(ctx)
	if !ok {
		return
	}
	m, err := i.inbox.SetRead(ctx.Request.Context(), id, read)
	if err != nil {
		i.notFoundOr500(ctx, err, 50031, "failed to update inbox message")
		return
	}
	utils.Success(ctx, toInternalMessageView(*m, viewerLocation(ctx)))
}

func (i *InboxController) Delete(ctx *gin.Context) {
	id, ok := idParam(ctx)
	if !ok {
		return
	}
	if err := i.inbox.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Fail(ctx, 40430, "inbox message not found")
			return
		}
		utils.Sugar.Errorw("delete inbox message failed", "id", id, "error", err)
		utils.Fail(ctx, 50032, "failed to delete inbox message")
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "inbox message deleted", nil)
}

// List pages the inbox newest first.
func (i *InboxController) List(ctx *gin.Context) {
	q, ok := bindPage(ctx)
	if !ok {
		return
	}
	page, err := i.inbox.List(ctx.Request.Context(), q.Page, q.Size)
	if err != nil {
		i.notFoundOr500(ctx, err, 50033, "failed to list inbox")
		return
	}
	utils.Success(ctx, services.PagedList[InternalMessageView]{
		Data:       toInternalMessageViews(page.Data, viewerLocation(ctx)),
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
		Page:       page.Page,
		Size:       page.Size,
	})
}

func (i *InboxController) Unreads(ctx *gin.Context) {
	rows, err := i.inbox.ListUnread(ctx.Request.Context())
	if err != nil {
		i.notFoundOr500(ctx, err, 50034, "failed to list unread messages")
		return
	}
	utils.Success(ctx, toInternalMessageViews(rows, viewerLocation(ctx)))
}

// Clear deletes every read message.
func (i *InboxController) Clear(ctx *gin.Context) {
	n, err := i.inbox.DeleteRead(ctx.Request.Context())
	if err != nil {
		i.notFoundOr500(ctx, err, 50035, "failed to clear inbox")
		return
	}
	utils.Success(ctx, gin.H{"deleted": n})
}

// MarkReadUpTo marks every message with id <= :id as read.
func (i *InboxController) MarkReadUpTo(ctx *gin.Context) {
	id, ok := idParam(ctx)
	if !ok {
		return
	}
	n, err := i.inbox.MarkReadUpTo(ctx.Request.Context(), id)
	if err != nil {
		i.notFoundOr500(ctx, err, 50036, "failed to mark messages read")
		return
	}
	utils.Success(ctx, gin.H{"updated": n})
}

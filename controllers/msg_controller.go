package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/middleware"
	"github.com/cppla/msgboard/models"
	"github.com/cppla/msgboard/services"
	"github.com/cppla/msgboard/session"
	"github.com/cppla/msgboard/utils"
)

// ListCachePrefix prefixes cached visitor listings.
const ListCachePrefix = "msgboard:list:"

// MsgController serves the public board and its moderation endpoints.
type MsgController struct {
	board    *services.MsgBoard
	owner    services.Owner
	cacheTTL time.Duration
}

func NewMsgController(board *services.MsgBoard, owner services.Owner, cacheTTL time.Duration) *MsgController {
	return &MsgController{board: board, owner: owner, cacheTTL: cacheTTL}
}

// InvalidateListCache drops every cached listing page.
func InvalidateListCache() {
	utils.InvalidateByPrefix(ListCachePrefix)
}

type listQuery struct {
	pageQuery
	Cid uint `form:"cid"`
}

// List returns a page of threads, or the single thread holding cid.
func (m *MsgController) List(ctx *gin.Context) {
	var q listQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "page must be >= 1 and size between 1 and 50")
		return
	}
	owner := middleware.IsOwner(ctx)
	loc := viewerLocation(ctx)

	if q.Cid != 0 {
		rows, err := m.board.Focus(ctx.Request.Context(), q.Cid, owner)
		if err != nil {
			utils.Sugar.Errorw("load focused thread failed", "cid", q.Cid, "error", err)
			utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load messages")
			return
		}
		if len(rows) > 0 {
			utils.Success(ctx, gin.H{
				"total":       1,
				"parentTotal": 1,
				"page":        q.Page,
				"size":        q.Size,
				"rows":        toLeaveMessageViews(rows, loc, owner),
			})
			return
		}
	}

	cacheKey := fmt.Sprintf("%s%d:%d:%s", ListCachePrefix, q.Page, q.Size, loc.String())
	if !owner && m.cacheTTL > 0 {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
	}

	page, err := m.board.Threads(ctx.Request.Context(), q.Page, q.Size, owner)
	if err != nil {
		utils.Sugar.Errorw("load threads failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to load messages")
		return
	}
	if len(page.Rows) == 0 {
		utils.Fail(ctx, 40400, "no messages yet")
		return
	}
	data := gin.H{
		"total":       page.Total,
		"parentTotal": page.Total,
		"page":        page.Page,
		"size":        page.Size,
		"rows":        toLeaveMessageViews(page.Rows, loc, owner),
	}
	if !owner && m.cacheTTL > 0 {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Success: true, Message: "success", Data: data}, m.cacheTTL)
	}
	utils.Success(ctx, data)
}

type submitForm struct {
	NickName   string `json:"nickName" form:"nickName" binding:"required,max=36"`
	Content    string `json:"content" form:"content" binding:"required,max=20000"`
	Email      string `json:"email" form:"email" binding:"omitempty,email,max=128"`
	QQorWechat string `json:"qqOrWechat" form:"qqOrWechat" binding:"max=32"`
	Browser    string `json:"browser" form:"browser" binding:"max=255"`
	ParentID   uint   `json:"parentId" form:"parentId"`
}

// Submit posts a new comment or reply.
func (m *MsgController) Submit(ctx *gin.Context) {
	var form submitForm
	if err := ctx.ShouldBind(&form); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid submission: "+err.Error())
		return
	}

	visitor := services.Visitor{IP: middleware.ClientIP(ctx), UserAgent: ctx.Request.UserAgent()}
	if middleware.IsOwner(ctx) {
		o := m.owner
		visitor.Owner = &o
	}

	msg, err := m.board.Submit(ctx.Request.Context(), services.SubmitRequest{
		NickName:   form.NickName,
		Content:    form.Content,
		Email:      form.Email,
		QQorWechat: form.QQorWechat,
		Browser:    form.Browser,
		ParentID:   form.ParentID,
	}, visitor, middleware.GetSession(ctx))
	switch {
	case errors.Is(err, services.ErrBlockedContent):
		utils.Fail(ctx, 40021, "your message contains blocked words and was rejected, please revise it and try again")
		return
	case errors.Is(err, services.ErrDuplicateSubmission):
		utils.Fail(ctx, 40022, "you have just posted this message")
		return
	case errors.Is(err, services.ErrNotFound):
		utils.Fail(ctx, 40420, "the message you replied to no longer exists")
		return
	case err != nil:
		utils.Fail(ctx, 50020, "failed to post message")
		return
	}

	if msg.Status == models.StatusPending {
		utils.Respond(ctx, http.StatusOK, 0, "message posted, it will be listed once the owner approves it", gin.H{"id": msg.ID})
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "message posted", gin.H{"id": msg.ID})
}

// Pass approves a pending comment.
func (m *MsgController) Pass(ctx *gin.Context) {
	id, ok := idParam(ctx)
	if !ok {
		return
	}
	if _, err := m.board.Approve(ctx.Request.Context(), id, m.owner.Email); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "message not found")
			return
		}
		utils.Sugar.Errorw("approve message failed", "id", id, "error", err)
		utils.Fail(ctx, 50021, "approval failed")
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "approved", nil)
}

// Delete removes a comment and all of its replies.
func (m *MsgController) Delete(ctx *gin.Context) {
	id, ok := idParam(ctx)
	if !ok {
		return
	}
	n, err := m.board.Delete(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "message not found")
			return
		}
		utils.Sugar.Errorw("delete message failed", "id", id, "error", err)
		utils.Fail(ctx, 50022, "delete failed")
		return
	}
	utils.Respond(ctx, http.StatusOK, 0, "deleted", gin.H{"deleted": n})
}

// Pending lists comments awaiting review.
func (m *MsgController) Pending(ctx *gin.Context) {
	q, ok := bindPage(ctx)
	if !ok {
		return
	}
	page, err := m.board.Messages().ListPending(ctx.Request.Context(), q.Page, q.Size)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load pending messages")
		return
	}
	utils.Success(ctx, services.PagedList[LeaveMessageView]{
		Data:       toLeaveMessageViews(page.Data, viewerLocation(ctx), true),
		TotalCount: page.TotalCount,
		TotalPages: page.TotalPages,
		Page:       page.Page,
		Size:       page.Size,
	})
}

// SetTimeZone stores the visitor's display timezone in the session.
func (m *MsgController) SetTimeZone(ctx *gin.Context) {
	var body struct {
		TimeZone string `json:"timeZone" form:"timeZone" binding:"required"`
	}
	if err := ctx.ShouldBind(&body); err != nil || !utils.ValidTimeZone(body.TimeZone) {
		utils.Error(ctx, http.StatusBadRequest, 40030, "unknown time zone")
		return
	}
	middleware.GetSession(ctx).Set(session.KeyTimeZone, body.TimeZone)
	utils.Success(ctx, gin.H{"timeZone": body.TimeZone})
}

// ClearSession forgets the visitor's session state.
func (m *MsgController) ClearSession(ctx *gin.Context) {
	middleware.GetSession(ctx).Clear()
	utils.Success(ctx, nil)
}

// AntiForgery hands out the token required by Submit.
func (m *MsgController) AntiForgery(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"token": middleware.IssueAntiForgeryToken(ctx)})
}

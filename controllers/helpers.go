package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/middleware"
	"github.com/cppla/msgboard/session"
	"github.com/cppla/msgboard/utils"
)

// pageQuery binds ?page=&size= with the board's bounds.
type pageQuery struct {
	Page int `form:"page,default=1" binding:"min=1"`
	Size int `form:"size,default=15" binding:"min=1,max=50"`
}

func bindPage(ctx *gin.Context) (pageQuery, bool) {
	var q pageQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "page must be >= 1 and size between 1 and 50")
		return q, false
	}
	return q, true
}

// idParam parses :id as a positive integer or answers 400.
func idParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid id")
		return 0, false
	}
	return uint(id), true
}

// viewerLocation is the timezone chosen by the visitor for displayed times.
func viewerLocation(ctx *gin.Context) *time.Location {
	return utils.LoadLocation(middleware.GetSession(ctx).Get(session.KeyTimeZone))
}

package controllers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/config"
	"github.com/cppla/msgboard/middleware"
	"github.com/cppla/msgboard/utils"
)

const tokenTTL = 7 * 24 * time.Hour

// AuthController logs the site owner in and out.
type AuthController struct{}

func NewAuthController() *AuthController {
	return &AuthController{}
}

type loginRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Login exchanges the owner credentials for a JWT, also set as a cookie.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "username and password are required")
		return
	}
	cfg := config.Get()
	if cfg.LoginCaptcha && !utils.VerifyCaptcha(req.CaptchaID, req.CaptchaAnswer) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "captcha verification failed")
		return
	}
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(cfg.OwnerUsername)) == 1
	if !userOK || cfg.OwnerPasswordHash == "" || !utils.CheckPassword(cfg.OwnerPasswordHash, req.Password) {
		utils.Sugar.Infow("owner login failed", "username", req.Username, "ip", middleware.ClientIP(ctx))
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid credentials")
		return
	}

	token, err := utils.GenerateToken(cfg.OwnerUsername, tokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to issue token")
		return
	}
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(middleware.TokenCookie, token, int(tokenTTL.Seconds()), "/", "", false, true)
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(tokenTTL).Unix(),
	})
}

// Logout revokes the current token.
func (a *AuthController) Logout(ctx *gin.Context) {
	if claims := middleware.Claims(ctx); claims != nil && claims.ExpiresAt != nil {
		utils.BlacklistToken(ctx.GetString(middleware.ContextTokenKey), claims.ExpiresAt.Time)
	}
	ctx.SetCookie(middleware.TokenCookie, "", -1, "/", "", false, true)
	utils.Success(ctx, nil)
}

// Me describes the logged in owner.
func (a *AuthController) Me(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"username":   cfg.OwnerUsername,
		"nickName":   cfg.OwnerNickName,
		"email":      cfg.OwnerEmail,
		"qqOrWechat": cfg.OwnerQQorWechat,
	})
}

// Captcha issues a new image captcha.
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, img, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to generate captcha")
		return
	}
	utils.Success(ctx, gin.H{"captcha_id": id, "image": img})
}

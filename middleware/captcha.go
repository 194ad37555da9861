package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/utils"
)

// CaptchaRequired checks X-Captcha-Id / X-Captcha-Answer when enabled.
// The owner skips the check.
func CaptchaRequired(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || IsOwner(c) {
			c.Next()
			return
		}
		if !utils.VerifyCaptcha(c.GetHeader("X-Captcha-Id"), c.GetHeader("X-Captcha-Answer")) {
			utils.Error(c, http.StatusBadRequest, 40011, "captcha verification failed")
			c.Abort()
			return
		}
		c.Next()
	}
}

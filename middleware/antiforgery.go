package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cppla/msgboard/session"
	"github.com/cppla/msgboard/utils"
)

const (
	// AntiForgeryHeader carries the anti-forgery token on API calls.
	AntiForgeryHeader = "X-CSRF-Token"
	// AntiForgeryField is the form field alternative to the header.
	AntiForgeryField = "__RequestVerificationToken"
)

// IssueAntiForgeryToken returns the session's token, creating one if needed.
func IssueAntiForgeryToken(c *gin.Context) string {
	sess := GetSession(c)
	tok := sess.Get(session.KeyCSRF)
	if tok == "" {
		tok = uuid.NewString()
		sess.Set(session.KeyCSRF, tok)
	}
	return tok
}

// ValidateAntiForgery rejects state-changing requests whose token does not
// match the one stored in the session.
func ValidateAntiForgery() gin.HandlerFunc {
	return func(c *gin.Context) {
		want := GetSession(c).Get(session.KeyCSRF)
		got := c.GetHeader(AntiForgeryHeader)
		if got == "" {
			got = c.PostForm(AntiForgeryField)
		}
		if want == "" || got == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			utils.Error(c, http.StatusBadRequest, 40010, "anti-forgery token missing or invalid")
			c.Abort()
			return
		}
		c.Next()
	}
}

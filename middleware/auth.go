package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/utils"
)

const (
	// ContextClaimsKey stores the parsed owner claims inside the gin context.
	ContextClaimsKey = "claims"
	// ContextTokenKey stores the raw bearer token.
	ContextTokenKey = "token"
	// TokenCookie carries the owner token for browser clients.
	TokenCookie = "msgboard_token"
)

// bearerToken reads the token from the Authorization header, then the cookie.
func bearerToken(ctx *gin.Context) (string, int) {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", 40102
		}
		tok := strings.TrimSpace(parts[1])
		if tok == "" {
			return "", 40103
		}
		return tok, 0
	}
	if c, err := ctx.Cookie(TokenCookie); err == nil && c != "" {
		return c, 0
	}
	return "", 40101
}

func authenticate(ctx *gin.Context) (*utils.Claims, int, string) {
	tok, code := bearerToken(ctx)
	if code != 0 {
		return nil, code, "authorization missing or malformed"
	}
	if utils.IsTokenBlacklisted(tok) {
		return nil, 40104, "token revoked"
	}
	claims, err := utils.ParseToken(tok)
	if err != nil {
		return nil, 40105, "invalid token"
	}
	ctx.Set(ContextTokenKey, tok)
	ctx.Set(ContextClaimsKey, claims)
	return claims, 0, ""
}

// AuthOptional attaches owner claims when a valid token is present and never rejects.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		_, _, _ = authenticate(ctx)
		ctx.Next()
	}
}

// OwnerRequired rejects requests that do not carry a valid owner token.
func OwnerRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, code, msg := authenticate(ctx)
		if code != 0 {
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		if !claims.IsOwner() {
			utils.Error(ctx, http.StatusForbidden, 40301, "owner only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// Claims returns the claims set by the auth middlewares, if any.
func Claims(ctx *gin.Context) *utils.Claims {
	v, ok := ctx.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	c, _ := v.(*utils.Claims)
	return c
}

// IsOwner reports whether the request is authenticated as the site owner.
func IsOwner(ctx *gin.Context) bool {
	return Claims(ctx).IsOwner()
}

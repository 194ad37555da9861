package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/msgboard/utils"
)

// CountryFilter enforces deny over allow based on client IP country.
// Private addresses and lookup failures are let through.
func CountryFilter(allowed, denied []string) gin.HandlerFunc {
	denySet := toSet(denied)
	allowSet := toSet(allowed)

	return func(c *gin.Context) {
		if len(denySet) == 0 && len(allowSet) == 0 {
			c.Next()
			return
		}
		ip := ClientIP(c)
		if utils.IsPrivateIP(ip) {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		country, err := utils.GetIPCountry(ctx, ip)
		if err != nil || country == "" {
			c.Next()
			return
		}
		if _, bad := denySet[country]; bad {
			blockCountry(c, ip, country, 40302)
			return
		}
		if len(allowSet) > 0 {
			if _, ok := allowSet[country]; !ok {
				blockCountry(c, ip, country, 40303)
				return
			}
		}
		c.Next()
	}
}

func blockCountry(c *gin.Context, ip, country string, code int) {
	utils.Sugar.Infow("submission blocked by country filter", "ip", ip, "country", country)
	utils.Error(c, http.StatusForbidden, code, fmt.Sprintf("submissions from %s are not allowed", ip))
	c.Abort()
}

func toSet(list []string) map[string]struct{} {
	m := make(map[string]struct{}, len(list))
	for _, v := range list {
		if v = utils.NormalizeCountryName(v); v != "" {
			m[v] = struct{}{}
		}
	}
	return m
}

// ClientIP extracts the visitor IP considering common proxy headers.
// Priority: CF-Connecting-IP > X-Real-IP > first of X-Forwarded-For > gin.ClientIP
func ClientIP(c *gin.Context) string {
	for _, h := range []string{"CF-Connecting-IP", "X-Real-IP"} {
		if v := stripPort(strings.TrimSpace(c.GetHeader(h))); isPublicIP(v) {
			return v
		}
	}
	if v := c.GetHeader("X-Forwarded-For"); v != "" {
		first := stripPort(strings.TrimSpace(strings.Split(v, ",")[0]))
		if isPublicIP(first) {
			return first
		}
	}
	return stripPort(c.ClientIP())
}

func stripPort(ip string) string {
	if h, _, err := net.SplitHostPort(ip); err == nil {
		return h
	}
	return ip
}

func isPublicIP(ip string) bool {
	p := net.ParseIP(ip)
	return p != nil && !p.IsLoopback() && !p.IsPrivate()
}

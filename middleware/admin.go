package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arkapradana/arenahub/config"
	"github.com/arkapradana/arenahub/utils"
)

// AdminRequired allows only usernames listed in config. It must run after
// AuthRequired so the username is present in the context.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		name, ok := ctx.Get(ContextUsernameKey)
		username, _ := name.(string)
		if !ok || username == "" || !IsAdminUsername(username) {
			utils.Error(ctx, http.StatusForbidden, 40301, "admin access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// IsAdminUsername reports whether the username is configured as an admin
// (case-insensitive).
func IsAdminUsername(username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	for _, admin := range config.Get().AdminUsernames {
		if strings.EqualFold(strings.TrimSpace(admin), username) {
			return true
		}
	}
	return false
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"luxora/internal/core/auth"
	"luxora/internal/domain"
	resp "luxora/internal/transport/http/response"
)

const (
	KeyClaims    = "claims"
	KeyPrincipal = "principal"
	KeyUserID    = "userId"
	KeyRole      = "role"
)

// PrincipalLoader 按 token 中的 id + role 取出主体；不存在返回 nil
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, id, role string) (*domain.Principal, error)
}

func bearer(c *gin.Context) string {
	ah := c.GetHeader("Authorization")
	if strings.HasPrefix(ah, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(ah, "Bearer "))
	}
	// 浏览器 websocket 无法设置请求头
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

// AuthJWT 401 token 无效/过期；404 主体不存在；403 已停用或角色不符
func AuthJWT(j *auth.JWTer, loader PrincipalLoader, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			resp.Abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := j.Parse(tok)
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		p, err := loader.LoadPrincipal(c.Request.Context(), claims.UID, claims.Role)
		if err != nil {
			resp.Error(c, err)
			return
		}
		if p == nil {
			resp.Abort(c, http.StatusNotFound, "account not found")
			return
		}
		if !p.Active() {
			resp.Abort(c, http.StatusForbidden, "account is deactivated")
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyPrincipal, *p)
		c.Set(KeyUserID, p.ID())
		c.Set(KeyRole, p.Role())

		if len(roles) > 0 && !contains(roles, p.Role()) {
			resp.Abort(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

// RequireRoles 用在已鉴权分组的子分组
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !contains(roles, c.GetString(KeyRole)) {
			resp.Abort(c, http.StatusForbidden, "forbidden")
			return
		}
		c.Next()
	}
}

func PrincipalOf(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(KeyPrincipal)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

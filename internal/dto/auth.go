package dto

// ── 认证模块 DTO ──

// LoginRequest 登录请求；bcrypt 只处理前 72 字节
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=72"`
}

// RefreshTokenRequest 刷新 Token 请求；为空时读取 HttpOnly Cookie
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

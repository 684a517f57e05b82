package dto

import (
	"time"
)

// SessionResponse 当前会话
type SessionResponse struct {
	User    *UserResponse `json:"user"`
	Expires time.Time     `json:"expires"`
}

// SecretResponse 登录探针响应
type SecretResponse struct {
	Message string `json:"message"`
}

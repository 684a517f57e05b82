package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomToken 生成 URL 安全的随机串
func RandomToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32
	}
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

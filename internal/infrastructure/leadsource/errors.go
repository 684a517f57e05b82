package leadsource

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "leadgen-api/pkg/errors"
)

// APIError 上游返回的错误，StatusCode 为 0 表示网络错误
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
	err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("leadsource %s: %s", e.Endpoint, e.Message)
	}
	return fmt.Sprintf("leadsource %s: status %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

// Unavailable 上游不可达或 5xx
func (e *APIError) Unavailable() bool {
	return e.StatusCode == 0 || e.StatusCode >= 500
}

// IsNotFound 是否为 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnavailable 是否为上游不可用
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unavailable()
}

type errorResponse struct {
	Error   string `json:"error"`
	Detail  any    `json:"detail"`
	Message string `json:"message"`
}

// parseError 从错误响应中提取信息
func parseError(resp *http.Response, endpoint string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Error != "":
			apiErr.Message = errResp.Error
		case errResp.Message != "":
			apiErr.Message = errResp.Message
		case errResp.Detail != nil:
			if s, ok := errResp.Detail.(string); ok {
				apiErr.Message = s
			} else if raw, err := json.Marshal(errResp.Detail); err == nil {
				apiErr.Message = string(raw)
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// AsAppError 将上游错误映射为应用错误
func AsAppError(err error, fallback *apperrors.AppError) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if fallback == nil {
		fallback = apperrors.ErrUpstreamFailed
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return fallback.WithError(err)
	}
	switch {
	case apiErr.Unavailable():
		return apperrors.ErrUpstreamUnavailable.WithError(err)
	case apiErr.StatusCode == http.StatusNotFound:
		return apperrors.ErrNotFound.WithDetail(apiErr.Message).WithError(err)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return apperrors.ErrTooManyRequests.WithDetail(apiErr.Message).WithError(err)
	case apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity:
		return apperrors.ErrInvalidParam.WithDetail(apiErr.Message).WithError(err)
	default:
		return fallback.WithDetail(apiErr.Message).WithError(err)
	}
}

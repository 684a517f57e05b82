package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const oauthStatePrefix = "oauth:state:"

// OAuthState 登录发起时保存的上下文
type OAuthState struct {
	Verifier    string    `json:"verifier"`
	RedirectURI string    `json:"redirect_uri"`
	ReturnTo    string    `json:"return_to,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// StateStore OAuth state 存储，state 只能消费一次
type StateStore struct {
	client *Client
	ttl    time.Duration
}

// NewStateStore 创建 state 存储
func NewStateStore(client *Client, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{client: client, ttl: ttl}
}

// Save 保存 state
func (s *StateStore) Save(ctx context.Context, state string, data *OAuthState) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal oauth state: %w", err)
	}
	if err := s.client.Set(ctx, oauthStatePrefix+state, raw, s.ttl); err != nil {
		return fmt.Errorf("failed to save oauth state: %w", err)
	}
	return nil
}

// Consume 取出并删除 state，不存在或已过期时返回 nil
func (s *StateStore) Consume(ctx context.Context, state string) (*OAuthState, error) {
	raw, err := s.client.GetDel(ctx, oauthStatePrefix+state)
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load oauth state: %w", err)
	}
	var data OAuthState
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal oauth state: %w", err)
	}
	return &data, nil
}

package principal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), &Principal{UserID: "u1"})
	p, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", p.UserID)
}

func TestIdentity(t *testing.T) {
	p := &Principal{UserID: "u1", Email: "ada@example.com"}
	assert.Equal(t, "ada@example.com", NewIdentity("email")(p))
	assert.Equal(t, "ada@example.com", NewIdentity("")(p))
	assert.Equal(t, "u1", NewIdentity("id")(p))
	assert.Equal(t, "u1", NewIdentity("email")(&Principal{UserID: "u1"}))
}

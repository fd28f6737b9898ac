package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTemplates(t *testing.T) {
	m := PasswordReset("Asha", "asha@x.io", "https://shop/reset?token=abc")
	assert.Equal(t, "asha@x.io", m.ToEmail)
	assert.Contains(t, m.Text, "https://shop/reset?token=abc")
	assert.Contains(t, m.HTML, "token=abc")

	o := OrderPlaced("Asha", "asha@x.io", "o1", "200", []OrderLine{{Title: "<Lamp>", Quantity: 2, Amount: "200"}})
	assert.Contains(t, o.Subject, "o1")
	assert.Contains(t, o.Text, "<Lamp> x2")
	assert.Contains(t, o.HTML, "&lt;Lamp&gt;")
}

func TestOutboxAndLog(t *testing.T) {
	var box Outbox
	require.NoError(t, box.Send(context.Background(), Message{ToEmail: "a@x.io"}))
	assert.Len(t, box.Sent(), 1)

	assert.NoError(t, Log{L: zap.NewNop()}.Send(context.Background(), Message{ToEmail: "a@x.io"}))
}

package payment

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"luxora/pkg/utils"
)

// Memory 进程内网关，本地联调与测试用
type Memory struct {
	mu       sync.Mutex
	intents  map[string]*Intent
	currency string
}

func NewMemory(currency string) *Memory {
	return &Memory{intents: map[string]*Intent{}, currency: strings.ToLower(currency)}
}

func (m *Memory) PublishableKey() string { return "pk_test_memory" }

func (m *Memory) Currency() string { return m.currency }

func (m *Memory) CreateIntent(_ context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*Intent, error) {
	id := "pi_" + utils.NewID()
	in := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Amount:       amount.Round(2),
		Currency:     strings.ToLower(currency),
		Status:       "requires_payment_method",
		Metadata:     metadata,
	}
	m.mu.Lock()
	m.intents[id] = in
	m.mu.Unlock()
	cp := *in
	return &cp, nil
}

func (m *Memory) GetIntent(_ context.Context, id string) (*Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	cp := *in
	return &cp, nil
}

// Succeed 模拟客户端完成支付
func (m *Memory) Succeed(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	in, ok := m.intents[id]
	if ok {
		in.Status = StatusSucceeded
	}
	return ok
}

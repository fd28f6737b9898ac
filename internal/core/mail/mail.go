// Package mail 事务邮件：找回密码、下单确认。
package mail

import (
	"context"
	"fmt"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
	log    *zap.Logger
}

func NewSendGrid(apiKey, fromName, fromAddress string, l *zap.Logger) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(fromName, fromAddress),
		log:    l,
	}
}

func (s *SendGrid) Send(ctx context.Context, m Message) error {
	msg := sgmail.NewSingleEmail(s.from, m.Subject, sgmail.NewEmail(m.ToName, m.ToEmail), m.Text, m.HTML)
	res, err := s.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= 400 {
		s.log.Warn("sendgrid rejected mail", zap.Int("status", res.StatusCode), zap.String("body", res.Body))
		return fmt.Errorf("sendgrid: status %d", res.StatusCode)
	}
	s.log.Info("mail sent", zap.String("to", m.ToEmail), zap.String("subject", m.Subject))
	return nil
}

// Log 未配置 SendGrid 时只写日志
type Log struct{ L *zap.Logger }

func (l Log) Send(_ context.Context, m Message) error {
	l.L.Info("mail (not sent)", zap.String("to", m.ToEmail), zap.String("subject", m.Subject), zap.String("text", m.Text))
	return nil
}

// Outbox 测试用，记录所有邮件
type Outbox struct {
	mu   sync.Mutex
	sent []Message
}

func (o *Outbox) Send(_ context.Context, m Message) error {
	o.mu.Lock()
	o.sent = append(o.sent, m)
	o.mu.Unlock()
	return nil
}

func (o *Outbox) Sent() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.sent...)
}

// Package mailer 通过 SMTP 投递外联邮件
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"leadgen-api/internal/config"
)

var tracer = otel.Tracer("mailer")

var (
	// ErrNotConfigured 未配置 SMTP
	ErrNotConfigured = errors.New("smtp not configured")
	// ErrNoRecipients 没有收件人
	ErrNoRecipients = errors.New("no recipients")
)

// Message 待投递邮件
type Message struct {
	ReplyTo   string
	ReplyName string
	To        []string
	Subject   string
	Body      string
}

// Sender 邮件投递接口
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer SMTP 投递实现
type SMTPMailer struct {
	cfg     config.SMTPConfig
	now     func() time.Time
	rootCAs *x509.CertPool
}

// NewSMTPMailer 创建 SMTP 投递器
func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: *cfg, now: time.Now}
}

// Send 投递邮件，SMTP 4xx 响应视为可重试
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	ctx, span := tracer.Start(ctx, "mailer.SMTPMailer.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("mail.recipients", len(msg.To)))

	if m.cfg.Host == "" || m.cfg.From == "" {
		return ErrNotConfigured
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	data, err := m.compose(msg)
	if err != nil {
		return err
	}

	c, err := m.dial(ctx)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer c.Close()

	if err := c.SendMail(m.cfg.From, msg.To, bytes.NewReader(data)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("smtp send: %w", err)
	}
	if err := c.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", err)
	}
	return nil
}

func (m *SMTPMailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var (
		c   *smtp.Client
		err error
	)
	switch {
	case m.cfg.Port == 465:
		c, err = smtp.DialTLS(addr, m.tlsConfig())
	case m.cfg.StartTLS:
		c, err = smtp.DialStartTLS(addr, m.tlsConfig())
	default:
		c, err = smtp.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("smtp dial %s: %w", addr, err)
	}

	timeout := m.cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}
	c.CommandTimeout = timeout
	c.SubmissionTimeout = timeout

	if m.cfg.Username != "" {
		auth := sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)
		if err := c.Auth(auth); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("smtp auth: %w", err)
		}
	}
	return c, nil
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{ServerName: m.cfg.Host, RootCAs: m.rootCAs, MinVersion: tls.VersionTLS12}
}

// compose 生成 RFC 5322 邮件正文
func (m *SMTPMailer) compose(msg *Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(m.now())
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{{Name: m.cfg.FromName, Address: m.cfg.From}})

	to := make([]*mail.Address, 0, len(msg.To))
	for _, addr := range msg.To {
		to = append(to, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", to)
	if msg.ReplyTo != "" {
		h.SetAddressList("Reply-To", []*mail.Address{{Name: msg.ReplyName, Address: msg.ReplyTo}})
	}
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating mail writer: %w", err)
	}
	if _, err := w.Write([]byte(msg.Body)); err != nil {
		return nil, fmt.Errorf("writing mail body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing mail body: %w", err)
	}
	return buf.Bytes(), nil
}

// IsTemporary SMTP 临时错误（4xx）或网络错误
func IsTemporary(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrNoRecipients) {
		return false
	}
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return smtpErr.Code >= 400 && smtpErr.Code < 500
	}
	return true
}

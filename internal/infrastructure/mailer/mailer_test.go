package mailer

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"io"
	"math/big"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-api/internal/config"
)

type received struct {
	from string
	to   []string
	data string
}

type backend struct {
	mu       sync.Mutex
	messages []received
	rejectTo string
}

func (b *backend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &session{b: b}, nil
}

type session struct {
	b   *backend
	msg received
}

func (s *session) Mail(from string, _ *smtp.MailOptions) error {
	s.msg.from = from
	return nil
}

func (s *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	if to == s.b.rejectTo {
		return &smtp.SMTPError{Code: 450, Message: "mailbox busy"}
	}
	s.msg.to = append(s.msg.to, to)
	return nil
}

func (s *session) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.msg.data = string(data)
	s.b.mu.Lock()
	s.b.messages = append(s.b.messages, s.msg)
	s.b.mu.Unlock()
	return nil
}

func (s *session) Reset()        { s.msg = received{} }
func (s *session) Logout() error { return nil }

func startServer(t *testing.T) (*backend, config.SMTPConfig) {
	t.Helper()
	return startServerTLS(t, nil)
}

func startServerTLS(t *testing.T, tlsConfig *tls.Config) (*backend, config.SMTPConfig) {
	t.Helper()
	be := &backend{}
	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.TLSConfig = tlsConfig

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = srv.Serve(l) }()
	t.Cleanup(func() { _ = srv.Close() })

	host, port, _ := net.SplitHostPort(l.Addr().String())
	p, _ := strconv.Atoi(port)
	return be, config.SMTPConfig{
		Host:     host,
		Port:     p,
		From:     "outreach@leadgen.test",
		FromName: "Leadgen",
		Timeout:  5 * time.Second,
	}
}

func TestSMTPMailer_Send(t *testing.T) {
	be, cfg := startServer(t)
	m := NewSMTPMailer(&cfg)

	err := m.Send(context.Background(), &Message{
		ReplyTo:   "ada@example.com",
		ReplyName: "Ada",
		To:        []string{"buyer@acme.io", "ceo@acme.io"},
		Subject:   "Partnership",
		Body:      "Xin chào, hello there",
	})
	require.NoError(t, err)

	require.Len(t, be.messages, 1)
	got := be.messages[0]
	assert.Equal(t, "outreach@leadgen.test", got.from)
	assert.Equal(t, []string{"buyer@acme.io", "ceo@acme.io"}, got.to)
	assert.Contains(t, got.data, "Subject: Partnership")
	assert.Contains(t, got.data, "Reply-To:")
	assert.Contains(t, got.data, "ada@example.com")
	assert.Contains(t, got.data, "Message-Id:")
	assert.Contains(t, got.data, "text/plain")
}

// selfSigned 为 127.0.0.1 生成自签名证书
func selfSigned(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "127.0.0.1"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		IsCA:         true,

		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(leaf)
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}, pool
}

func TestSMTPMailer_StartTLS(t *testing.T) {
	cert, pool := selfSigned(t)
	be, cfg := startServerTLS(t, &tls.Config{Certificates: []tls.Certificate{cert}})
	cfg.StartTLS = true
	m := NewSMTPMailer(&cfg)
	m.rootCAs = pool

	err := m.Send(context.Background(), &Message{To: []string{"buyer@acme.io"}, Subject: "Secure", Body: "hello"})
	require.NoError(t, err)
	require.Len(t, be.messages, 1)
	assert.Contains(t, be.messages[0].data, "Subject: Secure")

	// 服务端未提供 STARTTLS 时拒绝明文投递
	_, plainCfg := startServer(t)
	plainCfg.StartTLS = true
	err = NewSMTPMailer(&plainCfg).Send(context.Background(), &Message{To: []string{"buyer@acme.io"}, Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp dial")
}

func TestSMTPMailer_TemporaryRejection(t *testing.T) {
	be, cfg := startServer(t)
	be.rejectTo = "busy@acme.io"
	m := NewSMTPMailer(&cfg)

	err := m.Send(context.Background(), &Message{To: []string{"busy@acme.io"}, Subject: "s", Body: "b"})
	require.Error(t, err)
	assert.True(t, IsTemporary(err))
	assert.Empty(t, be.messages)
}

func TestSMTPMailer_Validation(t *testing.T) {
	m := NewSMTPMailer(&config.SMTPConfig{})
	err := m.Send(context.Background(), &Message{To: []string{"a@b.c"}})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, IsTemporary(err))

	m = NewSMTPMailer(&config.SMTPConfig{Host: "localhost", Port: 25, From: "x@y.z"})
	err = m.Send(context.Background(), &Message{})
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.False(t, IsTemporary(err))
}

func TestIsTemporary(t *testing.T) {
	assert.False(t, IsTemporary(nil))
	assert.True(t, IsTemporary(&smtp.SMTPError{Code: 421}))
	assert.False(t, IsTemporary(&smtp.SMTPError{Code: 550}))
	assert.True(t, IsTemporary(errors.New("connection reset")))
}

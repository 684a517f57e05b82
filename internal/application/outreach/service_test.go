package outreach

import (
	"context"
	"errors"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/infrastructure/leadsource"
	"leadgen-api/internal/infrastructure/mailer"
	"leadgen-api/internal/infrastructure/messaging"
	"leadgen-api/internal/infrastructure/persistence/database"
	"leadgen-api/internal/infrastructure/persistence/database/dbtest"
	apperrors "leadgen-api/pkg/errors"
)

type fakeGenerator struct {
	draft entity.MailDraft
	err   error
}

func (g *fakeGenerator) GenerateMail(_ context.Context, _ string, draft entity.MailDraft) (*entity.GeneratedMail, error) {
	g.draft = draft
	if g.err != nil {
		return nil, g.err
	}
	return &entity.GeneratedMail{EN: "Hello " + draft.Company, VI: "Xin chào " + draft.Company}, nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (p *fakePublisher) PublishMailSend(_ context.Context, mailID, _ string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.published = append(p.published, mailID)
	return "1-0", nil
}

type fakeSender struct {
	sent []*mailer.Message
	err  error
}

func (s *fakeSender) Send(_ context.Context, msg *mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fixture struct {
	svc       *Service
	deliverer *Deliverer
	mails     *database.MailRepository
	generator *fakeGenerator
	publisher *fakePublisher
	sender    *fakeSender
	p         *principal.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	user := dbtest.SeedUser(t, db, "ada@example.com")

	f := &fixture{
		mails:     database.NewMailRepository(db),
		generator: &fakeGenerator{},
		publisher: &fakePublisher{},
		sender:    &fakeSender{},
		p:         &principal.Principal{UserID: user.ID, Email: user.Email},
	}
	f.svc = NewService(f.generator, f.mails, f.publisher, principal.NewIdentity(principal.IdentityEmail), 3)
	f.deliverer = NewDeliverer(f.mails, f.sender, f.publisher, 2)
	return f
}

func TestGenerateMail(t *testing.T) {
	f := newFixture(t)

	mail, err := f.svc.GenerateMail(context.Background(), f.p, entity.MailDraft{Company: " Acme ", Notes: " short "})
	require.NoError(t, err)
	assert.Equal(t, "Hello Acme", mail.EN)
	assert.Equal(t, "short", f.generator.draft.Notes)

	_, err = f.svc.GenerateMail(context.Background(), f.p, entity.MailDraft{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	f.generator.err = errors.New("timeout")
	got, err := f.svc.GenerateMail(context.Background(), f.p, entity.MailDraft{Company: "Acme"})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, apperrors.CodeGenerationFailed, apperrors.AsAppError(err).Code)

	f.generator.err = &leadsource.APIError{StatusCode: 429, Message: "slow down"}
	got, err = f.svc.GenerateMail(context.Background(), f.p, entity.MailDraft{Company: "Acme"})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Equal(t, apperrors.CodeTooManyRequests, apperrors.AsAppError(err).Code)
}

func TestSendMails_QueuesAndStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mail, err := f.svc.SendMails(ctx, f.p, SendInput{
		Mails:   []string{"a@acme.test", " b@acme.test", "a@acme.test", ""},
		Subject: "Partnership",
		Message: "Hi there",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.MailStatusPending, mail.Status)
	assert.Equal(t, []string{"a@acme.test", "b@acme.test"}, mail.Recipients)
	assert.Equal(t, "ada@example.com", mail.Sender)
	assert.Equal(t, []string{mail.ID}, f.publisher.published)

	got, err := f.svc.MailStatus(ctx, f.p.UserID, mail.ID)
	require.NoError(t, err)
	assert.Equal(t, mail.ID, got.ID)

	_, err = f.svc.MailStatus(ctx, "someone-else", mail.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMailNotFound))
}

func TestSendMails_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   SendInput
	}{
		{"no recipients", SendInput{Subject: "s", Message: "m"}},
		{"invalid email", SendInput{Mails: []string{"not-an-email"}, Subject: "s", Message: "m"}},
		{"too many", SendInput{Mails: []string{"a@x.io", "b@x.io", "c@x.io", "d@x.io"}, Subject: "s", Message: "m"}},
		{"no subject", SendInput{Mails: []string{"a@x.io"}, Message: "m"}},
		{"no message", SendInput{Mails: []string{"a@x.io"}, Subject: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMails(ctx, f.p, tt.in)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
		})
	}
	assert.Empty(t, f.publisher.published)
}

func TestSendMails_EnqueueFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("redis down")

	_, err := f.svc.SendMails(context.Background(), f.p, SendInput{Mails: []string{"a@x.io"}, Subject: "s", Message: "m"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMailEnqueue))
}

func queueMail(t *testing.T, f *fixture) *entity.OutboundMail {
	t.Helper()
	mail, err := f.svc.SendMails(context.Background(), f.p, SendInput{Mails: []string{"a@x.io"}, Subject: "Hi", Message: "Body"})
	require.NoError(t, err)
	return mail
}

func TestDeliverer_Handle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mail := queueMail(t, f)

	msg, err := messaging.NewMessage(mail.ID, messaging.MessageTypeMailSend, f.p.UserID,
		&messaging.MailSendMessage{MailID: mail.ID, UserID: f.p.UserID})
	require.NoError(t, err)
	require.NoError(t, f.deliverer.Handle(ctx, msg))

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "ada@example.com", f.sender.sent[0].ReplyTo)
	assert.Equal(t, []string{"a@x.io"}, f.sender.sent[0].To)

	got, err := f.mails.GetByID(ctx, mail.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MailStatusSent, got.Status)
	assert.NotNil(t, got.SentAt)

	// 重复消息不会再次发送
	require.NoError(t, f.deliverer.Handle(ctx, msg))
	assert.Len(t, f.sender.sent, 1)
}

func TestDeliverer_TemporaryFailureRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mail := queueMail(t, f)
	f.sender.err = &smtp.SMTPError{Code: 451, Message: "try later"}

	err := f.deliverer.Deliver(ctx, mail.ID)
	require.Error(t, err)
	assert.False(t, errors.Is(err, messaging.ErrPermanent))

	got, err := f.mails.GetByID(ctx, mail.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MailStatusFailed, got.Status)
	assert.Equal(t, 1, got.Attempts)

	n, err := f.deliverer.Requeue(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// 第二次失败达到重试上限
	err = f.deliverer.Deliver(ctx, mail.ID)
	assert.True(t, errors.Is(err, messaging.ErrPermanent))

	n, err = f.deliverer.Requeue(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDeliverer_PermanentFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.deliverer.Deliver(ctx, "missing")
	assert.True(t, errors.Is(err, messaging.ErrPermanent))

	mail := queueMail(t, f)
	f.sender.err = &smtp.SMTPError{Code: 550, Message: "mailbox unavailable"}
	err = f.deliverer.Deliver(ctx, mail.ID)
	assert.True(t, errors.Is(err, messaging.ErrPermanent))

	got, err := f.mails.GetByID(ctx, mail.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MailStatusRejected, got.Status)
	assert.Equal(t, 1, got.Attempts)

	// 永久拒收的邮件不再重新入队或投递
	n, err := f.deliverer.Requeue(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.sender.err = nil
	require.NoError(t, f.deliverer.Deliver(ctx, mail.ID))
	assert.Empty(t, f.sender.sent)

	bad := &messaging.Message{ID: "x", Type: messaging.MessageTypeMailSend, Payload: []byte("{")}
	assert.True(t, errors.Is(f.deliverer.Handle(ctx, bad), messaging.ErrPermanent))
}

package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile UserProfile
		wantErr bool
	}{
		{"empty", UserProfile{}, false},
		{"valid", UserProfile{
			Addresses: []Address{{Country: "Germany", Name: "Berlin HQ"}},
			Mails:     []string{"sales@acme.io"},
			Socials:   []SocialMedia{{Platform: "linkedin", URL: "https://linkedin.com/company/acme"}},
			Websites:  []string{"https://acme.io"},
			Products:  []Product{{Name: "Widgets"}},
		}, false},
		{"address without country", UserProfile{Addresses: []Address{{Name: "HQ"}}}, true},
		{"bad mail", UserProfile{Mails: []string{"not-an-email"}}, true},
		{"empty industry", UserProfile{Industries: []string{""}}, true},
		{"product without name", UserProfile{Products: []Product{{Description: "x"}}}, true},
		{"social bad url", UserProfile{Socials: []SocialMedia{{Platform: "x", URL: "nope"}}}, true},
		{"bad website", UserProfile{Websites: []string{"acme"}}, true},
		{"empty phone", UserProfile{Phones: []string{""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUser_ApplyProfile(t *testing.T) {
	u := NewUser(" Alice@Example.com ", "Alice", "")
	assert.Equal(t, "alice@example.com", u.Email)

	before := u.UpdatedAt
	time.Sleep(time.Millisecond)
	changed := u.ApplyProfile(&UserProfile{
		Company:    strPtr("Acme"),
		Industries: []string{"Logistics"},
	})
	assert.True(t, changed)
	assert.Equal(t, "Acme", u.Company)
	assert.Equal(t, []string{"Logistics"}, u.Industries)
	assert.Equal(t, "Alice", u.Name)
	assert.Empty(t, u.Mails)
	assert.True(t, u.UpdatedAt.After(before))

	assert.False(t, u.ApplyProfile(&UserProfile{Company: strPtr("Acme")}))
}

func TestGeneratedProfile_ToProfileDropsInvalid(t *testing.T) {
	g := &GeneratedProfile{
		Company:  "  ",
		Mails:    []string{"ok@acme.io", "broken"},
		Websites: []string{"https://acme.io", "acme"},
		Socials:  []SocialMedia{{Platform: "", URL: "https://x.com"}},
		Phones:   []string{},
	}
	p := g.ToProfile()
	assert.Nil(t, p.Company)
	assert.Equal(t, []string{"ok@acme.io"}, p.Mails)
	assert.Equal(t, []string{"https://acme.io"}, p.Websites)
	assert.Nil(t, p.Socials)
	assert.Nil(t, p.Phones)
	require.NoError(t, p.Validate())
}

func TestCollection_Items(t *testing.T) {
	c := NewCollection("u1", "  Prospects ")
	assert.Equal(t, "Prospects", c.Name)
	assert.Equal(t, []string{}, c.Items)

	c.AddItems("a", "b", "a", " ")
	c.AddItems("b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, c.Items)
	assert.True(t, c.Contains("b"))

	c.RemoveItems("b", "zzz")
	assert.Equal(t, []string{"a", "c"}, c.Items)

	c.RemoveItems("a", "c")
	assert.NotNil(t, c.Items)
	assert.Empty(t, c.Items)

	c.SetItems([]string{"x", "x", "y"})
	assert.Equal(t, []string{"x", "y"}, c.Items)
	assert.True(t, c.BelongsTo("u1"))
	assert.False(t, c.BelongsTo("u2"))
}

func TestParseSource(t *testing.T) {
	s, err := ParseSource(" LinkedIn ")
	require.NoError(t, err)
	assert.Equal(t, SourceLinkedIn, s)

	_, err = ParseSource("yellowpages")
	assert.Error(t, err)
	assert.False(t, Source("").Valid())
}

func TestSession_IsExpired(t *testing.T) {
	assert.False(t, NewSession("tok", "u", "web", time.Hour).IsExpired())
	assert.True(t, NewSession("tok", "u", "web", -time.Second).IsExpired())
}

func TestOutboundMail_Lifecycle(t *testing.T) {
	m := NewOutboundMail("u", "me@acme.io", []string{"a@x.io", "a@x.io", "b@x.io"}, "Hi", "Body")
	assert.Equal(t, MailStatusPending, m.Status)
	assert.Equal(t, []string{"a@x.io", "b@x.io"}, m.Recipients)

	m.Start()
	assert.Equal(t, MailStatusSending, m.Status)
	assert.Equal(t, 1, m.Attempts)

	m.Fail("dial tcp: refused")
	assert.True(t, m.CanRetry(3))
	m.Start()
	m.Start()
	assert.False(t, m.CanRetry(3))

	m.MarkSent()
	assert.True(t, m.IsTerminal())
	assert.NotNil(t, m.SentAt)
	assert.Empty(t, m.ErrorMessage)
}

func TestEmployee_MergeContact(t *testing.T) {
	e := &Employee{BaseInfo: BaseInfo{ID: "e1", Name: "Bob"}}
	assert.False(t, e.Unlocked())
	e.MergeContact(&Contact{Mail: "bob@acme.io", Verified: true})
	assert.True(t, e.Unlocked())
	require.NotNil(t, e.Verified)
	assert.True(t, *e.Verified)
}

func TestCompany_CountryCode(t *testing.T) {
	c := &Company{Country: "Germany"}
	assert.Equal(t, "DE", c.CountryCode())
}

func TestOutboundMail_Reject(t *testing.T) {
	m := NewOutboundMail("u", "me@acme.io", []string{"a@x.io"}, "Hi", "Body")
	m.Start()
	m.Reject("550 mailbox unavailable")

	assert.Equal(t, MailStatusRejected, m.Status)
	assert.True(t, m.IsTerminal())
	assert.False(t, m.CanRetry(3))
	assert.Equal(t, "550 mailbox unavailable", m.ErrorMessage)
}

package leadsource

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadgen-api/internal/domain/entity"
	apperrors "leadgen-api/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(append([]Option{WithBaseURL(srv.URL + "/")}, opts...)...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSearchCompanies(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/company", r.URL.Path)
		assert.Equal(t, "coffee beans", r.URL.Query().Get("query"))
		assert.Equal(t, "kompass", r.URL.Query().Get("source"))
		assert.Equal(t, "a@b.com", r.URL.Query().Get("user"))
		writeJSON(w, http.StatusOK, map[string]any{
			"id": "s1",
			"data": []map[string]any{
				{"id": "c1", "name": "Acme", "country": "Germany", "employeeCount": 12},
			},
		})
	})

	res, err := c.SearchCompanies(context.Background(), "a@b.com", "coffee beans", entity.SourceKompass)
	require.NoError(t, err)
	assert.Equal(t, "s1", res.ID)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Acme", res.Data[0].Name)
	assert.Equal(t, 12, res.Data[0].EmployeeCount)
	assert.Equal(t, "DE", res.Data[0].CountryCode())
}

func TestSearchCompanies_EmptyData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "s2"})
	})

	res, err := c.SearchCompanies(context.Background(), "u", "q", entity.SourceLinkedIn)
	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestEmployees_BatchesAndMerges(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var batches []string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		ids := r.URL.Query().Get("ids")
		mu.Lock()
		batches = append(batches, ids)
		mu.Unlock()

		out := map[string][]entity.Employee{}
		for _, id := range strings.Split(ids, ",") {
			if id == "c5" {
				continue
			}
			out[id] = []entity.Employee{{BaseInfo: entity.BaseInfo{ID: "e-" + id, Name: "E " + id}, Company: id}}
		}
		writeJSON(w, http.StatusOK, out)
	}, WithEmployeeBatch(2, 2))

	ids := []string{"c1", "c2", "c3", "c4", "c5"}
	got, err := c.Employees(context.Background(), "u", ids)
	require.NoError(t, err)

	assert.EqualValues(t, 3, calls.Load())
	sort.Strings(batches)
	assert.Equal(t, []string{"c1,c2", "c3,c4", "c5"}, batches)

	require.Len(t, got, 5)
	assert.Equal(t, "e-c3", got["c3"][0].ID)
	assert.NotNil(t, got["c5"])
	assert.Empty(t, got["c5"])
}

func TestEmployees_NoIDs(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:0"))
	got, err := c.Employees(context.Background(), "u", nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmployees_BatchFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Query().Get("ids"), "bad") {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "boom"})
			return
		}
		writeJSON(w, http.StatusOK, map[string][]entity.Employee{})
	}, WithEmployeeBatch(1, 1))

	_, err := c.Employees(context.Background(), "u", []string{"ok", "bad"})
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestDeleteHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/delete", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body struct {
			User string   `json:"user"`
			IDs  []string `json:"ids"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "u", body.User)
		assert.Equal(t, []string{"h1", "h2"}, body.IDs)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.DeleteHistory(context.Background(), "u", []string{"h1", "h2"}))
}

func TestGenerateMail_OmitsEmptyParams(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "c1", q.Get("company"))
		assert.False(t, q.Has("employee"))
		assert.Equal(t, "be brief", q.Get("notes"))
		writeJSON(w, http.StatusOK, entity.GeneratedMail{EN: "Hello", VI: "Xin chào"})
	})

	mail, err := c.GenerateMail(context.Background(), "u", entity.MailDraft{Company: "c1", Notes: "be brief"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", mail.EN)
	assert.Equal(t, "Xin chào", mail.VI)
}

func TestProfileFromFiles_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file2profile", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "u", r.FormValue("user"))
		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "deck.pdf", files[0].Filename)
		assert.Equal(t, "application/pdf", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "application/octet-stream", files[1].Header.Get("Content-Type"))
		f, err := files[1].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "plain notes", string(data))
		writeJSON(w, http.StatusOK, map[string]any{"company": "Acme", "mails": []string{"x@acme.io"}})
	})

	profile, err := c.ProfileFromFiles(context.Background(), "u", []Upload{
		{Filename: "deck.pdf", ContentType: "application/pdf", Data: strings.NewReader("%PDF")},
		{Filename: "notes.txt", Data: strings.NewReader("plain notes")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", profile.Company)
	assert.Equal(t, []string{"x@acme.io"}, profile.Mails)
}

func TestKeywordsFromURL_NilBecomesEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://acme.io", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte("null"))
	})

	keywords, err := c.KeywordsFromURL(context.Background(), "u", "https://acme.io")
	require.NoError(t, err)
	assert.NotNil(t, keywords)
	assert.Empty(t, keywords)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMsg     string
		notFound    bool
		unavailable bool
	}{
		{"error field", http.StatusBadRequest, `{"error":"bad query"}`, "bad query", false, false},
		{"detail string", http.StatusNotFound, `{"detail":"no such company"}`, "no such company", true, false},
		{"detail object", http.StatusUnprocessableEntity, `{"detail":[{"loc":"id"}]}`, `[{"loc":"id"}]`, false, false},
		{"plain text", http.StatusBadGateway, "gateway down", "gateway down", false, true},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.CompanyInfo(context.Background(), "u", "c1")
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, "/moreinfo", apiErr.Endpoint)
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.unavailable, IsUnavailable(err))
		})
	}
}

func TestNetworkErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(WithBaseURL(url))
	_, err := c.Contact(context.Background(), "u", "e1")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Error(t, c.Ping(context.Background()))
}

func TestInvalidBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})
	_, err := c.History(context.Background(), "u", "h1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid response body", apiErr.Message)
	assert.False(t, apiErr.Unavailable())
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, entity.Contact{Mail: "a@b.c"})
	}, WithRateLimit(0.001, 1))

	_, err := c.Contact(context.Background(), "u", "e1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Contact(ctx, "u", "e2")
	require.Error(t, err)
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil, nil))

	unavailable := AsAppError(&APIError{StatusCode: 503, Endpoint: "/company"}, nil)
	assert.Equal(t, apperrors.CodeUpstreamUnavailable, unavailable.Code)

	notFound := AsAppError(&APIError{StatusCode: 404, Message: "gone"}, nil)
	assert.Equal(t, apperrors.CodeNotFound, notFound.Code)
	assert.Equal(t, "gone", notFound.Detail)

	bad := AsAppError(&APIError{StatusCode: 422, Message: "bad id"}, nil)
	assert.Equal(t, apperrors.CodeInvalidParam, bad.Code)

	unlock := AsAppError(&APIError{StatusCode: 402, Message: "no credits"}, apperrors.ErrUnlockFailed)
	assert.Equal(t, apperrors.CodeUnlockFailed, unlock.Code)
	assert.Equal(t, "no credits", unlock.Detail)

	assert.Equal(t, apperrors.CodeUpstreamFailed, AsAppError(context.Canceled, nil).Code)
}

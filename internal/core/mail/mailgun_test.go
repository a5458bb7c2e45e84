package mail

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMailgun_Send(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message":"Queued. Thank you."}`))
	}))
	defer srv.Close()

	mg := NewMailgun(MailgunOptions{BaseURL: srv.URL + "/v3/", Domain: "mg.example.com", APIKey: "key-1", From: "noreply@example.com"})
	err := mg.Send(context.Background(), Message{To: "a@example.com", Subject: "Hi", Text: "body"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v3/mg.example.com/messages", got.URL.Path)
	user, pass, ok := got.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "api", user)
	assert.Equal(t, "key-1", pass)
	assert.Equal(t, "a@example.com", got.PostForm.Get("to"))
	assert.Equal(t, "noreply@example.com", got.PostForm.Get("from"))
	assert.Equal(t, "Hi", got.PostForm.Get("subject"))
	assert.Equal(t, "body", got.PostForm.Get("text"))
}

func TestMailgun_SendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Forbidden", http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewMailgun(MailgunOptions{BaseURL: srv.URL, Domain: "d"}).Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	require.NoError(t, LogSender{Log: zap.New(core)}.Send(context.Background(), Message{To: "a@example.com", Subject: "s"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a@example.com", logs.All()[0].ContextMap()["to"])
}

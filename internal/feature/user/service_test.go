package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"storeapi/internal/core/auth"
	"storeapi/internal/core/task"
	"storeapi/internal/domain"
	"storeapi/internal/testutil"
)

type fixture struct {
	svc    *Service
	store  *testutil.MemStore
	codec  *auth.Codec
	runner *task.Runner
	mailer *testutil.FakeMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	codec, err := auth.NewCodec(auth.CodecOptions{
		Secret:     []byte("test-secret"),
		Algorithm:  "HS256",
		AccessTTL:  30 * time.Minute,
		ConfirmTTL: 24 * time.Hour,
	})
	require.NoError(t, err)
	f := &fixture{
		store:  testutil.NewMemStore(),
		codec:  codec,
		runner: task.NewRunner(testutil.NopLogger(), task.Options{}),
		mailer: &testutil.FakeMailer{},
	}
	f.svc = NewService(testutil.NopLogger(), f.store, codec, auth.NewHasher(bcrypt.MinCost), f.runner, f.mailer)
	return f
}

func confirmLink(tok string) string { return "http://localhost/api/v1/confirm/" + tok }

// register 注册并（可选）确认
func (f *fixture) register(t *testing.T, email, pw string, confirmed bool) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), email, pw, confirmLink)
	require.NoError(t, err)
	f.runner.Wait()
	if confirmed {
		require.NoError(t, f.store.SetConfirmed(context.Background(), email))
	}
	return u
}

func TestRegister_SendsConfirmationLink(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "a@example.com", "1234", false)

	assert.NotZero(t, u.ID)
	assert.False(t, u.Confirmed)
	assert.NotEqual(t, "1234", u.PasswordHash)

	sent := f.mailer.Messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@example.com", sent[0].To)
	i := strings.Index(sent[0].Text, "/confirm/")
	require.Positive(t, i)
	tok := sent[0].Text[i+len("/confirm/"):]

	sub, err := f.codec.Resolve(tok, auth.PurposeConfirmation)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", sub)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com", "1234", false)

	_, err := f.svc.Register(context.Background(), "a@example.com", "other", confirmLink)
	assert.ErrorIs(t, err, domain.ErrUserExists)
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com", "1234", false)
	tok, err := f.codec.IssueConfirmation("a@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Confirm(context.Background(), tok))
	require.NoError(t, f.svc.Confirm(context.Background(), tok))

	u, err := f.store.FindByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, u.Confirmed)
}

func TestConfirm_RejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com", "1234", false)
	access, err := f.codec.IssueAccess("a@example.com")
	require.NoError(t, err)

	err = f.svc.Confirm(context.Background(), access)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.ErrorIs(t, err, auth.ErrTokenPurposeMismatch)
	assert.Equal(t, "Token has incorrect type, expected 'confirmation'", err.Error())
}

func TestAuthenticate_FailuresShareKind(t *testing.T) {
	f := newFixture(t)
	f.register(t, "ok@example.com", "1234", true)
	f.register(t, "pending@example.com", "1234", false)

	cases := []struct {
		name, email, pw, reason string
		cause                   error
	}{
		{"unknown email", "nobody@example.com", "1234", ReasonBadCredentials, domain.ErrUserNotFound},
		{"wrong password", "ok@example.com", "nope", ReasonBadCredentials, domain.ErrBadCredentials},
		{"unconfirmed", "pending@example.com", "1234", ReasonNotConfirmed, domain.ErrNotConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Authenticate(context.Background(), tc.email, tc.pw)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.ErrorIs(t, err, tc.cause)
			assert.Equal(t, tc.reason, err.Error())
		})
	}
}

func TestLogin_IssuesAccessToken(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com", "1234", true)

	tok, err := f.svc.Login(context.Background(), "a@example.com", "1234")
	require.NoError(t, err)

	u, err := f.svc.CurrentUser(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
}

func TestCurrentUser_Failures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "a@example.com", "1234", true)
	f.register(t, "pending@example.com", "1234", false)

	confirm, err := f.codec.IssueConfirmation("a@example.com")
	require.NoError(t, err)
	ghost, err := f.codec.IssueAccess("ghost@example.com")
	require.NoError(t, err)
	pending, err := f.codec.IssueAccess("pending@example.com")
	require.NoError(t, err)
	expired, err := f.codec.Issue("a@example.com", auth.PurposeAccess, -time.Second)
	require.NoError(t, err)

	cases := []struct {
		name, token, reason string
		cause               error
	}{
		{"garbage", "not-a-token", "Invalid token", auth.ErrTokenMalformed},
		{"expired", expired, "Token has expired", auth.ErrTokenExpired},
		{"confirmation token", confirm, "Token has incorrect type, expected 'access'", auth.ErrTokenPurposeMismatch},
		{"unknown user", ghost, ReasonUserMissing, domain.ErrUserNotFound},
		{"unconfirmed user", pending, ReasonNotConfirmed, domain.ErrNotConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.CurrentUser(context.Background(), tc.token)
			require.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.ErrorIs(t, err, tc.cause)
			assert.Equal(t, tc.reason, err.Error())

			var ae *domain.AuthError
			assert.True(t, errors.As(err, &ae))
		})
	}
}

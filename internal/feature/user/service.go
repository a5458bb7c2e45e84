// Package user 负责注册、确认邮箱、登录，以及把 bearer token 解析成当前用户。
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"storeapi/internal/core/auth"
	"storeapi/internal/core/mail"
	"storeapi/internal/core/metrics"
	"storeapi/internal/core/task"
	"storeapi/internal/domain"
)

// 对外文案；三种登录失败共用同一条，避免泄露账号是否存在
const (
	ReasonBadCredentials = "Invalid email or password"
	ReasonNotConfirmed   = "User has not confirmed email"
	ReasonUserMissing    = "Could not find 'user' for this token"
)

type Service struct {
	users  domain.UserRepository
	codec  *auth.Codec
	hasher auth.Hasher
	runner task.Spawner
	mail   mail.Sender
	log    *zap.Logger
}

func NewService(l *zap.Logger, users domain.UserRepository, codec *auth.Codec, hasher auth.Hasher, runner task.Spawner, m mail.Sender) *Service {
	return &Service{users: users, codec: codec, hasher: hasher, runner: runner, mail: m, log: l.Named("user")}
}

// CurrentUser 只接受 access token。所有失败都是 *domain.AuthError。
func (s *Service) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	email, err := s.codec.Resolve(token, auth.PurposeAccess)
	if err != nil {
		return nil, domain.Unauthorized(auth.Reason(err), err)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.Unauthorized(ReasonUserMissing, err)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve current user: %w", err)
	}
	if !u.Confirmed {
		return nil, domain.Unauthorized(ReasonNotConfirmed, domain.ErrNotConfirmed)
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	u, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		s.log.Info("authentication failed", zap.String("email", email), zap.String("cause", "unknown_email"))
		return nil, domain.Unauthorized(ReasonBadCredentials, err)
	case err != nil:
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		s.log.Info("authentication failed", zap.String("email", email), zap.String("cause", "bad_password"))
		return nil, domain.Unauthorized(ReasonBadCredentials, domain.ErrBadCredentials)
	}
	if !u.Confirmed {
		s.log.Info("authentication failed", zap.String("email", email), zap.String("cause", "unconfirmed"))
		return nil, domain.Unauthorized(ReasonNotConfirmed, domain.ErrNotConfirmed)
	}
	return u, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.codec.IssueAccess(u.Email)
}

// Register 创建未确认用户，并在后台发送确认邮件。
// confirmURL 由传输层根据 token 拼出可点击的地址。
func (s *Service) Register(ctx context.Context, email, password string, confirmURL func(token string) string) (*domain.User, error) {
	email = normalizeEmail(email)
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	u := &domain.User{Email: email, PasswordHash: digest}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.codec.IssueConfirmation(email)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	link := confirmURL(token)
	msg := mail.Message{
		To:      email,
		Subject: "Successfully signed up",
		Text: fmt.Sprintf("Hi %s! You have successfully signed up to the Stores REST API. "+
			"Please confirm your email by clicking on the following link: %s", email, link),
	}
	if err := s.runner.Go("confirmation_mail", func(ctx context.Context) error {
		if err := s.mail.Send(ctx, msg); err != nil {
			metrics.MailsTotal.WithLabelValues("confirmation", "error").Inc()
			return err
		}
		metrics.MailsTotal.WithLabelValues("confirmation", "ok").Inc()
		return nil
	}); err != nil {
		s.log.Warn("confirmation mail not scheduled", zap.String("email", email), zap.Error(err))
	}
	s.log.Info("user registered", zap.Uint("user_id", u.ID), zap.String("email", email))
	return u, nil
}

// Confirm 只接受 confirmation token；重复确认是幂等的
func (s *Service) Confirm(ctx context.Context, token string) error {
	email, err := s.codec.Resolve(token, auth.PurposeConfirmation)
	if err != nil {
		return domain.Unauthorized(auth.Reason(err), err)
	}
	if err := s.users.SetConfirmed(ctx, email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Unauthorized(ReasonUserMissing, err)
		}
		return fmt.Errorf("confirm: %w", err)
	}
	return nil
}

func normalizeEmail(s string) string { return strings.TrimSpace(s) }


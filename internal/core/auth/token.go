package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose 对应 claim 里的 access_type，access 与 confirmation 不可互换
type Purpose string

const (
	PurposeAccess       Purpose = "access"
	PurposeConfirmation Purpose = "confirmation"
)

var (
	ErrTokenExpired         = errors.New("token has expired")
	ErrTokenMalformed       = errors.New("token is malformed")
	ErrTokenMissingSubject  = errors.New("token is missing subject")
	ErrTokenPurposeMismatch = errors.New("token purpose mismatch")
)

// PurposeError 携带期望的 purpose，errors.Is(err, ErrTokenPurposeMismatch) 成立
type PurposeError struct {
	Want Purpose
	Got  Purpose
}

func (e *PurposeError) Error() string {
	return fmt.Sprintf("token purpose mismatch: want %q, got %q", e.Want, e.Got)
}

func (e *PurposeError) Is(target error) bool { return target == ErrTokenPurposeMismatch }

type Claims struct {
	Purpose Purpose `json:"access_type,omitempty"`
	jwt.RegisteredClaims
}

type CodecOptions struct {
	Secret     []byte
	Algorithm  string // HS256 / HS384 / HS512
	Issuer     string // 可选；设置后签发与校验都会带上
	AccessTTL  time.Duration
	ConfirmTTL time.Duration
}

// Codec 构建后只读，可被所有请求并发使用
type Codec struct {
	secret     []byte
	method     jwt.SigningMethod
	issuer     string
	accessTTL  time.Duration
	confirmTTL time.Duration
	now        func() time.Time
}

func NewCodec(o CodecOptions) (*Codec, error) {
	if len(o.Secret) == 0 {
		return nil, errors.New("auth: empty signing secret")
	}
	m := jwt.GetSigningMethod(o.Algorithm)
	if _, ok := m.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unsupported signing algorithm %q", o.Algorithm)
	}
	return &Codec{
		secret:     o.Secret,
		method:     m,
		issuer:     o.Issuer,
		accessTTL:  o.AccessTTL,
		confirmTTL: o.ConfirmTTL,
		now:        time.Now,
	}, nil
}

// WithClock 返回使用指定时钟的副本（测试用）
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

func (c *Codec) Issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := c.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return s, nil
}

func (c *Codec) IssueAccess(subject string) (string, error) {
	return c.Issue(subject, PurposeAccess, c.accessTTL)
}

func (c *Codec) IssueConfirmation(subject string) (string, error) {
	return c.Issue(subject, PurposeConfirmation, c.confirmTTL)
}

// Resolve 校验签名并返回 subject。
// 过期判断自己做：now >= exp 即过期，不留 leeway。
func (c *Codec) Resolve(tokenStr string, want Purpose) (string, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{c.method.Alg()}), jwt.WithoutClaimsValidation())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return "", fmt.Errorf("%w: missing exp", ErrTokenMalformed)
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return "", ErrTokenExpired
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return "", fmt.Errorf("%w: unexpected issuer %q", ErrTokenMalformed, claims.Issuer)
	}
	if claims.Subject == "" {
		return "", ErrTokenMissingSubject
	}
	if claims.Purpose != want {
		return "", &PurposeError{Want: want, Got: claims.Purpose}
	}
	return claims.Subject, nil
}

// Reason 给出面向用户的提示文案，每种失败各不相同
func Reason(err error) string {
	var pe *PurposeError
	switch {
	case errors.As(err, &pe):
		return fmt.Sprintf("Token has incorrect type, expected '%s'", pe.Want)
	case errors.Is(err, ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, ErrTokenMissingSubject):
		return "Token is missing 'sub' field"
	default:
		return "Invalid token"
	}
}

package testutil

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"storeapi/internal/core/mail"
)

func NopLogger() *zap.Logger { return zap.NewNop() }

// ObservedLogger 返回可断言日志内容的 logger
func ObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// FakeGenerator 返回固定 URL 或错误，并记录收到的 prompt
type FakeGenerator struct {
	mu      sync.Mutex
	URL     string
	Err     error
	Prompts []string
}

func (g *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, prompt)
	if g.Err != nil {
		return "", g.Err
	}
	return g.URL, nil
}

type FakeMailer struct {
	mu   sync.Mutex
	Err  error
	Sent []mail.Message
}

func (f *FakeMailer) Send(_ context.Context, m mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, m)
	return f.Err
}

func (f *FakeMailer) Messages() []mail.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mail.Message(nil), f.Sent...)
}

package mail

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type MailgunOptions struct {
	BaseURL string // 例：https://api.mailgun.net/v3
	Domain  string
	APIKey  string
	From    string
	Timeout time.Duration
}

type Mailgun struct {
	opt  MailgunOptions
	http *http.Client
}

func NewMailgun(o MailgunOptions) *Mailgun {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	return &Mailgun{opt: o, http: &http.Client{Timeout: o.Timeout}}
}

func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("from", m.opt.From)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Text)

	endpoint := strings.TrimRight(m.opt.BaseURL, "/") + "/" + m.opt.Domain + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build mailgun request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.opt.APIKey)

	res, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailgun request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("mailgun: status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

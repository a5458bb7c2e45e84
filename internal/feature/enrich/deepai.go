package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Generator interface {
	// Generate 返回生成图片的 URL
	Generate(ctx context.Context, prompt string) (string, error)
}

var ErrNoOutput = errors.New("generation response has no output_url")

type DeepAIOptions struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type DeepAI struct {
	opt  DeepAIOptions
	http *http.Client
}

func NewDeepAI(o DeepAIOptions) *DeepAI {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	return &DeepAI{opt: o, http: &http.Client{Timeout: o.Timeout}}
}

func (d *DeepAI) Generate(ctx context.Context, prompt string) (string, error) {
	form := url.Values{"text": {prompt}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.opt.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("api-key", d.opt.APIKey)

	res, err := d.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("generation api: status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		OutputURL string `json:"output_url"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if out.OutputURL == "" {
		return "", ErrNoOutput
	}
	return out.OutputURL, nil
}

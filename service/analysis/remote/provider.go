// Package remote calls an HTTP scoring service (typically an LLM gateway).
//
// The request is a JSON POST of the analysis subject; the response must be
// {"confidence": 0.0-1.0, "narrative": "..."}. The bearer key is resolved
// through scy so it can live in an encrypted secret file.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/viant/reviewgate/service/analysis"
	"github.com/viant/scy"
)

// Config configures the endpoint.
type Config struct {
	URL       string        `json:"url" yaml:"url"`
	SecretURL string        `json:"secretURL,omitempty" yaml:"secretURL,omitempty"`
	SecretKey string        `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
	Model     string        `json:"model,omitempty" yaml:"model,omitempty"`
	Timeout   time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

type request struct {
	Model string `json:"model,omitempty"`
	*analysis.Subject
}

// Provider implements analysis.Provider over HTTP.
type Provider struct {
	config  Config
	client  *http.Client
	secrets *scy.Service
	once    sync.Once
	apiKey  string
	keyErr  error
}

// Option customises the provider.
type Option func(*Provider)

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) Option {
	return func(p *Provider) { p.client = client }
}

// WithAPIKey sets the key directly, bypassing scy.
func WithAPIKey(key string) Option {
	return func(p *Provider) { p.once.Do(func() { p.apiKey = key }) }
}

// New creates a provider.
func New(config Config, options ...Option) (*Provider, error) {
	if config.URL == "" {
		return nil, errors.New("remote analysis: url is required")
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	ret := &Provider{config: config, secrets: scy.New()}
	for _, option := range options {
		option(ret)
	}
	if ret.client == nil {
		ret.client = &http.Client{Timeout: config.Timeout}
	}
	return ret, nil
}

// Analyze posts the subject and decodes the score.
func (p *Provider) Analyze(ctx context.Context, subject *analysis.Subject) (*analysis.Result, error) {
	key, err := p.key(ctx)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(&request{Model: p.config.Model, Subject: subject})
	if err != nil {
		return nil, fmt.Errorf("remote analysis: failed to encode subject: %w", err)
	}
	httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote analysis: %w", err)
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if key != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+key)
	}
	response, err := p.client.Do(httpRequest)
	if err != nil {
		return nil, fmt.Errorf("remote analysis: %w", err)
	}
	defer response.Body.Close()
	data, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("remote analysis: failed to read response: %w", err)
	}
	if response.StatusCode/100 != 2 {
		return nil, fmt.Errorf("remote analysis: %s: %s", response.Status, strings.TrimSpace(string(data)))
	}
	result := &analysis.Result{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("remote analysis: invalid response: %w", err)
	}
	if c := result.Confidence; c != nil && (*c < 0 || *c > 1) {
		return nil, fmt.Errorf("remote analysis: confidence %v out of range", *c)
	}
	return result, nil
}

func (p *Provider) key(ctx context.Context) (string, error) {
	p.once.Do(func() {
		if p.config.SecretURL == "" {
			return
		}
		secret, err := p.secrets.Load(ctx, scy.NewResource(nil, p.config.SecretURL, p.config.SecretKey))
		if err != nil {
			p.keyErr = fmt.Errorf("remote analysis: failed to load secret %v: %w", p.config.SecretURL, err)
			return
		}
		p.apiKey = strings.TrimSpace(secret.String())
	})
	return p.apiKey, p.keyErr
}

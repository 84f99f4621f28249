package judge

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

	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

var ErrProfileError = errors.New("judge reported an error for the profile")

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client reads public judge statistics from GET {base}/{handle}. No credentials needed.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		logger:  opts.Logger,
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

func (c *Client) Kind() source.Kind {
	return source.KindJudge
}

func (c *Client) Fetch(ctx context.Context, s subject.Subject) (*source.JudgeRaw, error) {
	if !s.HasJudgeHandle() {
		return nil, source.ErrNotConfigured
	}
	handle := strings.TrimSpace(s.JudgeHandle)

	body, err := c.get(ctx, c.baseURL+"/"+url.PathEscape(handle))
	if err != nil {
		return nil, source.FetchError(source.KindJudge, err)
	}

	raw, err := parseProfile(body)
	if err != nil {
		return nil, source.FetchError(source.KindJudge, err)
	}
	raw.Handle = handle
	raw.SyncedAt = time.Now().UTC()

	c.logger.Debug("judge profile fetched",
		zap.String("handle", handle),
		zap.Int("topics", len(raw.Topics)),
	)
	return raw, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("judge request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
}

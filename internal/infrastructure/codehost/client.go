package codehost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"skill-radar/internal/domain/source"
	"skill-radar/internal/domain/subject"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.github.com"
	defaultPerPage = 100
	defaultTimeout = 15 * time.Second
	maxPages       = 50
	userAgent      = "skill-radar"
)

var (
	ErrUnauthorized = errors.New("code host rejected the access token")
	// errStatsPending is returned while the host is still computing commit statistics (202).
	errStatsPending = errors.New("commit statistics not ready")
)

// Identity is the account that owns an access token.
type Identity struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type Options struct {
	BaseURL    string
	PerPage    int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to a GitHub-compatible REST API with a bearer token.
type Client struct {
	baseURL string
	perPage int
	timeout time.Duration
	http    *http.Client
	logger  *zap.Logger
}

func New(opts Options) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		perPage: opts.PerPage,
		timeout: opts.Timeout,
		http:    opts.HTTPClient,
		logger:  opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.perPage <= 0 || c.perPage > 100 {
		c.perPage = defaultPerPage
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
	return source.KindCodeHost
}

// Identify resolves the account behind token.
func (c *Client) Identify(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrUnauthorized
	}
	var id Identity
	if err := c.getJSON(ctx, token, c.baseURL+"/user", &id); err != nil {
		return Identity{}, err
	}
	if id.ID == 0 {
		return Identity{}, errors.New("code host returned an identity without id")
	}
	return id, nil
}

// Fetch lists the subject's repositories with their language bytes and weekly commit
// series. A failing commit-activity call only leaves that repository's series nil.
func (c *Client) Fetch(ctx context.Context, s subject.Subject) (*source.CodeHostRaw, error) {
	if !s.HasCodeHostCredentials() {
		return nil, source.ErrNotConfigured
	}
	token := s.CodeHost.AccessToken

	repos, err := c.listRepositories(ctx, token)
	if err != nil {
		return nil, source.FetchError(source.KindCodeHost, err)
	}

	out := &source.CodeHostRaw{Repositories: make([]source.Repository, 0, len(repos))}
	for _, r := range repos {
		repo := source.Repository{
			Name:        r.Name,
			FullName:    r.FullName,
			Description: r.Description,
			Topics:      r.Topics,
		}

		if r.LanguagesURL != "" {
			langs, err := c.languages(ctx, token, r.LanguagesURL)
			if err != nil {
				return nil, source.FetchError(source.KindCodeHost, fmt.Errorf("languages for %s: %w", r.FullName, err))
			}
			repo.Languages = langs
		}

		if r.FullName != "" {
			weeks, err := c.commitActivity(ctx, token, r.FullName)
			switch {
			case err == nil:
				repo.CommitWeeks = weeks
			case ctx.Err() != nil:
				return nil, source.FetchError(source.KindCodeHost, ctx.Err())
			default:
				c.logger.Debug("commit activity unavailable",
					zap.String("repository", r.FullName),
					zap.Error(err),
				)
			}
		}

		out.Repositories = append(out.Repositories, repo)
	}

	out.SyncedAt = time.Now().UTC()
	return out, nil
}

type repoPayload struct {
	Name         string   `json:"name"`
	FullName     string   `json:"full_name"`
	Description  string   `json:"description"`
	Topics       []string `json:"topics"`
	LanguagesURL string   `json:"languages_url"`
}

func (c *Client) listRepositories(ctx context.Context, token string) ([]repoPayload, error) {
	var all []repoPayload
	for page := 1; page <= maxPages; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(c.perPage))
		q.Set("page", strconv.Itoa(page))

		var batch []repoPayload
		if err := c.getJSON(ctx, token, c.baseURL+"/user/repos?"+q.Encode(), &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < c.perPage {
			break
		}
	}
	return all, nil
}

func (c *Client) languages(ctx context.Context, token, endpoint string) (source.LanguageTotals, error) {
	var out source.LanguageTotals
	err := c.get(ctx, token, endpoint, func(body io.Reader) error {
		var err error
		out, err = decodeLanguages(body)
		return err
	})
	return out, err
}

type commitWeek struct {
	Total int `json:"total"`
}

func (c *Client) commitActivity(ctx context.Context, token, fullName string) ([]int, error) {
	var weeks []commitWeek
	if err := c.getJSON(ctx, token, c.baseURL+"/repos/"+fullName+"/stats/commit_activity", &weeks); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(weeks))
	for _, w := range weeks {
		out = append(out, w.Total)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, token, endpoint string, dst any) error {
	return c.get(ctx, token, endpoint, func(body io.Reader) error {
		return json.NewDecoder(body).Decode(dst)
	})
}

// get runs one request under its own timeout and hands a 200 body to decode.
func (c *Client) get(ctx context.Context, token, endpoint string, decode func(io.Reader) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return decode(resp.Body)
	case resp.StatusCode == http.StatusAccepted:
		return errStatsPending
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	default:
		rb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("code host request failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(rb)))
	}
}

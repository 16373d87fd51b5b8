package api

import (
	"context"
	"dota-mmr-tracker/internal/config"
	"dota-mmr-tracker/internal/mmr"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

var ErrRateLimited = errors.New("opendota rate limit exceeded")

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.StatusCode == fasthttp.StatusTooManyRequests
}

type OpenDotaClient struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	RemainingMinute int       `json:"remaining_minute"`
	RemainingDay    int       `json:"remaining_day"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewOpenDotaClient(cfg *config.Config) *OpenDotaClient {
	return &OpenDotaClient{
		baseURL: strings.TrimRight(cfg.OpenDotaBaseURL, "/"),
		apiKey:  cfg.OpenDotaAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         15 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
			// match lists of long-time players run to several megabytes
			MaxResponseBodySize: 64 << 20,
		},
		rateLimit: RateLimitInfo{
			RemainingMinute: 60,
			RemainingDay:    2000,
			UpdatedAt:       time.Now(),
		},
	}
}

func (c *OpenDotaClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *OpenDotaClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if remaining := string(resp.Header.Peek("X-Rate-Limit-Remaining-Minute")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.RemainingMinute = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Rate-Limit-Remaining-Day")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.RemainingDay = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// FetchMatches returns the raw match list of a player. With rankedOnly the
// list is filtered server-side to ranked lobbies.
func (c *OpenDotaClient) FetchMatches(ctx context.Context, playerID int64, rankedOnly bool) ([]byte, error) {
	query := map[string]string{}
	if rankedOnly {
		query["lobby_type"] = strconv.Itoa(mmr.LobbyTypeRanked)
	}
	url := c.endpoint(fmt.Sprintf("/players/%d/matches", playerID), query)
	raw, err := doRequest[json.RawMessage](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return *raw, nil
}

func (c *OpenDotaClient) FetchProfile(ctx context.Context, playerID int64) (*PlayerProfile, error) {
	url := c.endpoint(fmt.Sprintf("/players/%d", playerID), nil)
	return doRequest[PlayerProfile](ctx, c, url)
}

func (c *OpenDotaClient) endpoint(path string, query map[string]string) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	for k, v := range query {
		args.Set(k, v)
	}
	if c.apiKey != "" {
		args.Set("api_key", c.apiKey)
	}
	if args.Len() == 0 {
		return c.baseURL + path
	}
	return c.baseURL + path + "?" + args.String()
}

func doRequest[T any](ctx context.Context, client *OpenDotaClient, url string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		body := resp.Body()
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode(), Body: string(body)}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

type PlayerProfile struct {
	Profile         ProfileData `json:"profile"`
	RankTier        *int        `json:"rank_tier"`
	LeaderboardRank *int        `json:"leaderboard_rank"`
}

type ProfileData struct {
	AccountID      int64  `json:"account_id"`
	PersonaName    string `json:"personaname"`
	Name           string `json:"name"`
	Avatar         string `json:"avatarfull"`
	ProfileURL     string `json:"profileurl"`
	LocCountryCode string `json:"loccountrycode"`
	Plus           bool   `json:"plus"`
}

package dispatch

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

const (
	// DefaultGmailBaseURL is the Gmail REST API host.
	DefaultGmailBaseURL = "https://gmail.googleapis.com"
	// GmailComposeScope allows creating drafts without read access.
	GmailComposeScope = "https://www.googleapis.com/auth/gmail.compose"
)

// GmailOptions configures the HTTP behavior of GmailDrafter.
type GmailOptions struct {
	BaseURL        string
	UserID         string
	Timeout        time.Duration
	RetryMax       int // total attempts, including the first
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	Debug          bool
}

// GmailDrafter creates drafts through the Gmail API using an authorized
// token source supplied by the caller.
type GmailDrafter struct {
	client *resty.Client
	userID string
}

type draftRequest struct {
	Message draftMessage `json:"message"`
}

type draftMessage struct {
	ID       string `json:"id,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

type draftResponse struct {
	ID      string       `json:"id"`
	Message draftMessage `json:"message"`
}

type googleError struct {
	Error *APIError `json:"error"`
}

// NewGmailDrafter builds a drafter whose requests are authorized by ts.
func NewGmailDrafter(ctx context.Context, ts oauth2.TokenSource, opt GmailOptions) *GmailDrafter {
	if opt.BaseURL == "" {
		opt.BaseURL = DefaultGmailBaseURL
	}
	if opt.UserID == "" {
		opt.UserID = "me"
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 60 * time.Second
	}
	if opt.RetryMax <= 0 {
		opt.RetryMax = 3
	}
	if opt.RetryBaseDelay <= 0 {
		opt.RetryBaseDelay = 500 * time.Millisecond
	}
	if opt.RetryMaxDelay <= 0 {
		opt.RetryMaxDelay = 4 * time.Second
	}
	client := resty.NewWithClient(oauth2.NewClient(ctx, ts)).
		SetBaseURL(opt.BaseURL).
		SetTimeout(opt.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(opt.RetryMax - 1).
		SetRetryWaitTime(opt.RetryBaseDelay).
		SetRetryMaxWaitTime(opt.RetryMaxDelay).
		AddRetryCondition(retryCondition)
	if opt.Debug {
		client.SetDebug(true)
	}
	return &GmailDrafter{client: client, userID: opt.UserID}
}

// CreateDraft uploads the composed message and returns the Gmail draft ID.
func (g *GmailDrafter) CreateDraft(ctx context.Context, d Draft) (string, error) {
	msg, err := Compose(d)
	if err != nil {
		return "", err
	}
	var out draftResponse
	var gerr googleError
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("userId", g.userID).
		SetBody(draftRequest{Message: draftMessage{Raw: base64.URLEncoding.EncodeToString(msg)}}).
		SetResult(&out).
		SetError(&gerr).
		Post("/gmail/v1/users/{userId}/drafts")
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	if resp.IsError() {
		apiErr := gerr.Error
		if apiErr == nil {
			apiErr = &APIError{Message: truncate(resp.String(), 512)}
		}
		apiErr.StatusCode = resp.StatusCode()
		return "", classifyAPIError(apiErr, resp.Header())
	}
	if out.ID == "" {
		return "", errors.New("create draft: response carried no draft id")
	}
	return out.ID, nil
}

// retryCondition retries only failures that cannot have stored a draft.
// Draft creation is not idempotent, so 5xx and mid-request transport errors
// are returned instead of resent.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		var opErr *net.OpError
		return errors.As(err, &opErr) && opErr.Op == "dial"
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// parseRetryAfterSeconds interprets a Retry-After header as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if v == "" {
		return 0, errors.New("empty Retry-After")
	}
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

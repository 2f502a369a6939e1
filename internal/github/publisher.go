// Package github posts comments to the watched repository's issues.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mattjoyce/codex-relay/internal/retry"
)

// DefaultAPIBaseURL is the GitHub REST API root.
const DefaultAPIBaseURL = "https://api.github.com"

// Notifier receives a best-effort notification after a comment lands.
type Notifier interface {
	Notify(ctx context.Context, issueTitle string, issueNumber int, message string)
}

// Publisher creates issue comments via the GitHub REST API.
type Publisher struct {
	baseURL    string
	token      string
	repo       string
	sender     *retry.Sender
	httpClient *http.Client
	notifier   Notifier
	logger     *slog.Logger
}

// NewPublisher creates a Publisher. The notifier may be nil when push
// notifications are disabled entirely.
func NewPublisher(token, repo string, timeout time.Duration, sender *retry.Sender, notifier Notifier, logger *slog.Logger) *Publisher {
	return &Publisher{
		baseURL: DefaultAPIBaseURL,
		token:   token,
		repo:    repo,
		sender:  sender,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		notifier: notifier,
		logger:   logger,
	}
}

type commentRequest struct {
	Body string `json:"body"`
}

// PublishComment posts body as a comment on the given issue. On success
// it notifies the notifier; the comment attempt always precedes the
// notification attempt, and a notification failure never re-reports the
// comment outcome. Callers log the returned error and move on.
func (p *Publisher) PublishComment(ctx context.Context, issueNumber int, issueTitle, body string) error {
	payload, err := json.Marshal(commentRequest{Body: body})
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/issues/%d/comments", strings.TrimSuffix(p.baseURL, "/"), p.repo, issueNumber)

	resp := p.sender.Do(ctx, "GitHub comment", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "token "+p.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("Content-Type", "application/json")
		return p.httpClient.Do(req)
	})
	if resp == nil {
		p.logger.Error("failed to post comment", "issue", issueNumber, "error", "network error")
		return fmt.Errorf("post comment to issue %d: network error", issueNumber)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		p.logger.Error("failed to post comment",
			"issue", issueNumber,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return fmt.Errorf("post comment to issue %d: status %d", issueNumber, resp.StatusCode)
	}

	msg := fmt.Sprintf("✅ Comment posted to issue #%d", issueNumber)
	p.logger.Info("comment posted", "issue", issueNumber)

	if p.notifier != nil {
		p.notifier.Notify(ctx, issueTitle, issueNumber, msg)
	}
	return nil
}

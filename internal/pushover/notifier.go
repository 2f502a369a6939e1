// Package pushover sends best-effort push notifications via the
// Pushover message API.
package pushover

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mattjoyce/codex-relay/internal/retry"
)

// DefaultAPIURL is the Pushover message endpoint.
const DefaultAPIURL = "https://api.pushover.net/1/messages.json"

// Notifier sends push notifications with a deep link to the GitHub
// issue that triggered them. Notifications are best-effort: every
// failure is logged and none propagates to the caller.
type Notifier struct {
	apiURL     string
	token      string
	userKey    string
	repo       string
	sender     *retry.Sender
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a Notifier. When token or userKey is empty the
// notifier stays usable but Notify becomes a logged no-op.
func NewNotifier(token, userKey, repo string, timeout time.Duration, sender *retry.Sender, logger *slog.Logger) *Notifier {
	return &Notifier{
		apiURL:  DefaultAPIURL,
		token:   token,
		userKey: userKey,
		repo:    repo,
		sender:  sender,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Configured reports whether push credentials are present.
func (n *Notifier) Configured() bool {
	return n.token != "" && n.userKey != ""
}

// Notify sends a push notification about an issue. No-op when
// credentials are absent.
func (n *Notifier) Notify(ctx context.Context, issueTitle string, issueNumber int, message string) {
	if !n.Configured() {
		n.logger.Warn("pushover not configured, skipping notification")
		return
	}

	issueURL := fmt.Sprintf("https://github.com/%s/issues/%d", n.repo, issueNumber)
	form := url.Values{
		"token":     {n.token},
		"user":      {n.userKey},
		"title":     {issueTitle},
		"message":   {message},
		"url":       {issueURL},
		"url_title": {"View issue #" + strconv.Itoa(issueNumber)},
	}

	resp := n.sender.Do(ctx, "pushover notification", func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.apiURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return n.httpClient.Do(req)
	})
	if resp == nil {
		// Transport failure already logged by the sender.
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		n.logger.Error("pushover notification failed",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return
	}

	n.logger.Info("pushover notification sent", "issue", issueNumber)
}

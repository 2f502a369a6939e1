package webhook

import (
	"context"
	"encoding/json"

	"github.com/mattjoyce/codex-relay/internal/journal"
)

// PromptGenerator turns issue/comment text into an implementation
// prompt. Implementations are total: they degrade internally and never
// fail the request.
type PromptGenerator interface {
	Generate(ctx context.Context, text string) string
}

// CommentPublisher posts a comment on the originating issue. The
// returned error is logged by the handler but never changes the
// response.
type CommentPublisher interface {
	PublishComment(ctx context.Context, issueNumber int, issueTitle, body string) error
}

// DeliveryRecorder appends a delivery record to the journal.
type DeliveryRecorder interface {
	Record(ctx context.Context, d journal.Delivery) error
}

// Config holds webhook server configuration.
type Config struct {
	// Listen is the address the HTTP server binds to.
	Listen string

	// Path is the webhook URL path (default "/github-webhook-codex").
	Path string

	// Secret is the HMAC secret shared with GitHub.
	Secret string

	// WatchUser is the only sender whose events are processed.
	WatchUser string

	// MaxBodySize is the maximum allowed request body size in bytes (default: 1MB)
	MaxBodySize int64
}

// Default values
const (
	DefaultPath        = "/github-webhook-codex"
	DefaultMaxBodySize = 1048576 // 1 MB
)

// Event is the per-request view of a webhook payload, derived once
// from the raw JSON and immutable afterwards. Missing fields default
// to zero values rather than failing.
type Event struct {
	Type        string
	Action      string
	Sender      string
	IssueNumber int
	IssueTitle  string
	IssueBody   string
	CommentBody string
}

// eventPayload mirrors the slice of the GitHub payload the relay cares
// about.
type eventPayload struct {
	Action string `json:"action"`
	Sender struct {
		Login string `json:"login"`
	} `json:"sender"`
	Issue struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		Body   string `json:"body"`
	} `json:"issue"`
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// parseEvent decodes the raw payload into an Event of the given type.
func parseEvent(eventType string, raw []byte) (Event, error) {
	var p eventPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Event{}, err
	}
	return Event{
		Type:        eventType,
		Action:      p.Action,
		Sender:      p.Sender.Login,
		IssueNumber: p.Issue.Number,
		IssueTitle:  p.Issue.Title,
		IssueBody:   p.Issue.Body,
		CommentBody: p.Comment.Body,
	}, nil
}

// Text returns the text handed to the prompt generator: the comment
// body when present, otherwise the issue title and body separated by a
// blank line.
func (e Event) Text() string {
	if e.CommentBody != "" {
		return e.CommentBody
	}
	return e.IssueTitle + "\n\n" + e.IssueBody
}

// MsgResponse is the JSON body for acknowledged requests.
type MsgResponse struct {
	Msg string `json:"msg"`
}

// ErrorResponse is the JSON body for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

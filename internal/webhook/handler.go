package webhook

import (
	"context"
	"io"
	"net/http"

	"github.com/mattjoyce/codex-relay/internal/journal"
)

// acceptedActions maps each accepted event type to the single action
// that means "new content". Edits, labels, closes etc. are ignored. An
// absent action is allowed: some variants of the issues payload omit
// it.
var acceptedActions = map[string]string{
	"issues":        "opened",
	"issue_comment": "created",
}

// commentBanner opens every posted comment.
const commentBanner = "🤖 **Prompt ready for Codex:**"

// handleWebhook runs one delivery through the state machine. Terminal
// states: rejected-signature (401), rejected-parse (400), ignored
// (200), processed (200).
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deliveryID := r.Header.Get("X-GitHub-Delivery")
	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		eventType = "ping"
	}

	limitedReader := io.LimitReader(r.Body, s.config.MaxBodySize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if int64(len(body)) > s.config.MaxBodySize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	if err := verifySignature(body, r.Header.Get("X-Hub-Signature-256"), s.config.Secret); err != nil {
		s.logger.Warn("invalid signature, rejecting request", "delivery_id", deliveryID)
		s.record(ctx, journal.Delivery{
			ID:    deliveryID,
			Event: eventType,
			State: journal.StateRejectedSignature,
		})
		s.respondError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	event, err := parseEvent(eventType, body)
	if err != nil {
		s.logger.Error("failed to decode JSON payload", "delivery_id", deliveryID, "error", err)
		s.record(ctx, journal.Delivery{
			ID:    deliveryID,
			Event: eventType,
			State: journal.StateRejectedParse,
		})
		s.respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	s.logger.Info("received event", "delivery_id", deliveryID, "event", event.Type, "action", event.Action)

	if !s.accepts(event) {
		s.record(ctx, deliveryFor(deliveryID, event, journal.StateIgnored))
		s.respondJSON(w, http.StatusOK, MsgResponse{Msg: "ignored"})
		return
	}

	s.logger.Info("processing issue",
		"delivery_id", deliveryID,
		"issue", event.IssueNumber,
		"sender", event.Sender,
	)

	prompt := s.generator.Generate(ctx, event.Text())
	commentBody := commentBanner + "\n\n```\n" + prompt + "\n```"

	if err := s.publisher.PublishComment(ctx, event.IssueNumber, event.IssueTitle, commentBody); err != nil {
		// Logged only: GitHub is not told about downstream failures.
		s.logger.Error("comment publish failed", "delivery_id", deliveryID, "issue", event.IssueNumber, "error", err)
	}

	s.record(ctx, deliveryFor(deliveryID, event, journal.StateProcessed))
	s.respondJSON(w, http.StatusOK, MsgResponse{Msg: "processed"})
}

// accepts applies the event-type, action, and sender filters.
func (s *Server) accepts(event Event) bool {
	action, ok := acceptedActions[event.Type]
	if !ok {
		return false
	}
	if event.Action != "" && event.Action != action {
		s.logger.Info("ignored action", "event", event.Type, "action", event.Action)
		return false
	}
	if event.Sender != s.config.WatchUser {
		s.logger.Info("ignored event from sender", "sender", event.Sender)
		return false
	}
	return true
}

// record appends to the delivery journal, best-effort.
func (s *Server) record(ctx context.Context, d journal.Delivery) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, d); err != nil {
		s.logger.Warn("failed to record delivery", "delivery_id", d.ID, "error", err)
	}
}

func deliveryFor(deliveryID string, event Event, state string) journal.Delivery {
	return journal.Delivery{
		ID:          deliveryID,
		Event:       event.Type,
		Action:      event.Action,
		Sender:      event.Sender,
		IssueNumber: event.IssueNumber,
		State:       state,
	}
}

// Package generate turns issue and comment text into Codex-ready
// implementation prompts via a text-generation backend.
package generate

import (
	"context"
	"log/slog"
	"strings"
)

// Placeholder is returned when the backend fails for any reason. The
// relay posts it instead of a prompt so the failure is visible on the
// issue itself.
const Placeholder = "⚠️ Failed to generate Codex prompt."

// systemPrompt is the fixed instruction sent with every request.
const systemPrompt = "You are an assistant helping a developer generate a ready-to-use prompt " +
	"for Codex CLI, which will implement the requested feature in the GitHub repository " +
	"'Aleqsd/EDH-PodLog'. This repository manages Magic: The Gathering decks, users, matches, " +
	"and deck synchronization.\n\n" +
	"Your task:\n" +
	"- Rewrite the Product Owner message into a clear, comprehensive, and Codex-ready prompt.\n" +
	"- Preserve every requirement, constraint, data detail, and acceptance criterion from the Product Owner message, and list them under a `Preserved Requirements` heading before the final prompt to confirm coverage.\n" +
	"- Expand terse descriptions so the resulting prompt is very detailed, leaving no ambiguity for the implementer.\n" +
	"- Keep it fully in English.\n" +
	"- Focus on what needs to be implemented (new features, changes, endpoints, data model updates).\n" +
	"- Avoid repetition or irrelevant context beyond what is necessary to preserve meaning.\n" +
	"- Output the preserved requirements list followed by the Codex prompt, ready to be pasted in terminal.\n" +
	"\nExample output:\n" +
	"Implement a new FastAPI endpoint `POST /decks/import` allowing users to import a deck from Moxfield. " +
	"Use the existing `Deck` model in `models/deck.py`. Validate user authentication via `get_current_user()`. " +
	"On success, return the new deck as JSON.\n\n" +
	"---\n\n" +
	"Now rewrite this message from the Product Owner into such a Codex-ready prompt without omitting any detail."

// Generator produces a prompt from arbitrary issue/comment text. It is
// a total function: backend failures degrade to Placeholder and are
// logged, never surfaced to the caller.
type Generator struct {
	completer Completer
	logger    *slog.Logger
}

// NewGenerator creates a Generator. A nil completer is tolerated and
// yields Placeholder for every call.
func NewGenerator(completer Completer, logger *slog.Logger) *Generator {
	return &Generator{completer: completer, logger: logger}
}

// Generate returns the trimmed prompt for the given text, or
// Placeholder on any backend failure.
func (g *Generator) Generate(ctx context.Context, text string) string {
	if g.completer == nil {
		g.logger.Error("prompt generation failed", "error", "no completion backend configured")
		return Placeholder
	}

	out, err := g.completer.Complete(ctx, systemPrompt, text)
	if err != nil {
		g.logger.Error("prompt generation failed", "error", err)
		return Placeholder
	}
	return strings.TrimSpace(out)
}

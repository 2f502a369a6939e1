package generate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubCompleter struct {
	completeFn func(ctx context.Context, system, user string) (string, error)
}

func (s *stubCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return s.completeFn(ctx, system, user)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerate_TrimsOutput(t *testing.T) {
	g := NewGenerator(&stubCompleter{
		completeFn: func(ctx context.Context, system, user string) (string, error) {
			return "\n  Implement the thing.  \n", nil
		},
	}, testLogger())

	got := g.Generate(context.Background(), "add stats")
	assert.Equal(t, "Implement the thing.", got)
}

func TestGenerate_PassesSystemInstructionAndText(t *testing.T) {
	var gotSystem, gotUser string
	g := NewGenerator(&stubCompleter{
		completeFn: func(ctx context.Context, system, user string) (string, error) {
			gotSystem = system
			gotUser = user
			return "ok", nil
		},
	}, testLogger())

	g.Generate(context.Background(), "Deck stats\n\nPlease add stats")

	assert.Contains(t, gotSystem, "Codex CLI")
	assert.Contains(t, gotSystem, "Preserved Requirements")
	assert.Equal(t, "Deck stats\n\nPlease add stats", gotUser)
}

func TestGenerate_BackendErrorYieldsPlaceholder(t *testing.T) {
	g := NewGenerator(&stubCompleter{
		completeFn: func(ctx context.Context, system, user string) (string, error) {
			return "", errors.New("rate limited")
		},
	}, testLogger())

	assert.Equal(t, Placeholder, g.Generate(context.Background(), "anything"))
}

func TestGenerate_NilCompleterYieldsPlaceholder(t *testing.T) {
	g := NewGenerator(nil, testLogger())
	assert.Equal(t, Placeholder, g.Generate(context.Background(), "anything"))
}

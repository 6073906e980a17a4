package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func failing(name string, calls *[]string) Action {
	return Action{Name: name, Run: func(ctx context.Context) error {
		*calls = append(*calls, name)
		return errors.New("boom")
	}}
}

func succeeding(name string, calls *[]string) Action {
	return Action{Name: name, Run: func(ctx context.Context) error {
		*calls = append(*calls, name)
		return nil
	}}
}

func TestOpen_StopsAtFirstSuccess(t *testing.T) {
	var calls []string
	opener := NewOpener([]Action{
		failing("first", &calls),
		succeeding("second", &calls),
		succeeding("third", &calls),
	}, testLogger())

	if got := opener.Open(context.Background()); got != "second" {
		t.Errorf("expected second to win, got %q", got)
	}
	if len(calls) != 2 {
		t.Errorf("expected third action untried, calls: %v", calls)
	}
}

func TestOpen_AllFailuresAreSwallowed(t *testing.T) {
	var calls []string
	opener := NewOpener([]Action{
		failing("first", &calls),
		failing("second", &calls),
		failing("third", &calls),
	}, testLogger())

	if got := opener.Open(context.Background()); got != "" {
		t.Errorf("expected no winner, got %q", got)
	}
	if len(calls) != 3 {
		t.Errorf("expected every action tried, calls: %v", calls)
	}
}

func TestCommandActions_SkipsEmptyAndNeverEmpty(t *testing.T) {
	actions := CommandActions([][]string{{}, {"true"}})
	if len(actions) != 1 || actions[0].Name != "true" {
		t.Fatalf("unexpected actions: %+v", actions)
	}

	fallback := CommandActions(nil)
	if len(fallback) != 1 {
		t.Fatalf("expected placeholder action, got %+v", fallback)
	}
	if err := fallback[0].Run(context.Background()); err == nil {
		t.Error("placeholder action should fail")
	}
}

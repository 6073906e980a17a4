// Package settings opens the platform's biometric enrollment UI.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
)

// Action attempts one way of opening the settings UI.
type Action struct {
	Name string
	Run  func(ctx context.Context) error
}

// Opener tries a list of actions in order, stopping at the first that works.
// Failures are logged and swallowed; callers never see an error, matching
// the fire-and-forget contract of the settings channel method.
type Opener struct {
	actions []Action
	logger  *slog.Logger
}

// NewOpener creates an Opener with the given fallback chain.
func NewOpener(actions []Action, logger *slog.Logger) *Opener {
	return &Opener{actions: actions, logger: logger}
}

// Open walks the fallback chain. It reports which action succeeded, or ""
// when every action failed.
func (o *Opener) Open(ctx context.Context) string {
	for _, action := range o.actions {
		if err := action.Run(ctx); err != nil {
			o.logger.Debug("settings action failed",
				slog.String("action", action.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		o.logger.Info("settings opened", slog.String("action", action.Name))
		return action.Name
	}
	o.logger.Warn("no settings action succeeded")
	return ""
}

// CommandActions builds exec-based actions from argv lists, typically the
// configured fallback chain of desktop settings commands.
func CommandActions(commands [][]string) []Action {
	actions := make([]Action, 0, len(commands))
	for _, argv := range commands {
		if len(argv) == 0 {
			continue
		}
		argv := argv
		actions = append(actions, Action{
			Name: argv[0],
			Run: func(ctx context.Context) error {
				cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
				if err := cmd.Start(); err != nil {
					return err
				}
				// Detach; the settings UI outlives the request.
				go func() { _ = cmd.Wait() }()
				return nil
			},
		})
	}
	if len(actions) == 0 {
		actions = append(actions, Action{
			Name: "none",
			Run: func(ctx context.Context) error {
				return errors.New("no settings commands configured")
			},
		})
	}
	return actions
}

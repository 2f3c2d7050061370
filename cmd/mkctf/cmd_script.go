package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/spf13/cobra"

	"mkctf/internal/challenge"
	"mkctf/internal/display"
	"mkctf/internal/logging"
	"mkctf/internal/runner"
)

// Exit statuses for lifecycle commands.
const (
	exitScriptFailed = 2
	exitTimedOut     = 3
	exitStartFailed  = 4
)

// newScriptCmd builds "build" or "deploy".
func newScriptCmd(a *app, action, short string) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   action + " CATEGORY/SLUG",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := a.challenge(args[0])
			if err != nil {
				return err
			}
			var o runner.Outcome
			if action == "build" {
				o = ch.Build(cmd.Context(), timeout)
			} else {
				o = ch.Deploy(cmd.Context(), timeout)
			}
			return report(cmd, action, ch, o)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", challenge.DefaultTimeout, "Kill the script after this long")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var timeout, wait time.Duration
	cmd := &cobra.Command{
		Use:   "status CATEGORY/SLUG",
		Short: "Run the challenge status script",
		Long: "Run the status script once, or with --wait keep re-running it with\n" +
			"exponential backoff until it succeeds or the wait budget is spent.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := a.challenge(args[0])
			if err != nil {
				return err
			}
			var o runner.Outcome
			if wait > 0 {
				o = waitStatus(cmd.Context(), ch, timeout, wait)
			} else {
				o = ch.Status(cmd.Context(), timeout)
			}
			return report(cmd, "status", ch, o)
		},
	}
	f := cmd.Flags()
	f.DurationVar(&timeout, "timeout", challenge.DefaultTimeout, "Kill each status run after this long")
	f.DurationVar(&wait, "wait", 0, "Retry until the status script succeeds or this much time has passed")
	return cmd
}

// waitStatus re-runs the status script until it exits 0, cannot start, or
// the next attempt would begin after wait has elapsed. The last outcome is
// returned.
func waitStatus(ctx context.Context, ch *challenge.Challenge, timeout, wait time.Duration) runner.Outcome {
	log := logging.New("status")
	deadline := time.Now().Add(wait)
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	for attempt := 1; ; attempt++ {
		o := ch.Status(ctx, timeout)
		if o.OK() || o.Kind == runner.StartFailed {
			return o
		}
		sleep := bo.NextBackOff()
		if sleep == backoff.Stop || time.Now().Add(sleep).After(deadline) {
			return o
		}
		log.Info("challenge not ready, retrying",
			"challenge", ch.ID(), "attempt", attempt, "outcome", o.Kind.String(), "retry_in", sleep)
		select {
		case <-ctx.Done():
			return o
		case <-time.After(sleep):
		}
	}
}

// report prints the captured output and a summary, and turns anything but a
// clean exit into an exitError.
func report(cmd *cobra.Command, action string, ch *challenge.Challenge, o runner.Outcome) error {
	_, _ = cmd.OutOrStdout().Write(o.Stdout)
	_, _ = cmd.ErrOrStderr().Write(o.Stderr)

	summary := display.Summary(action, ch.ID(), o)
	switch {
	case o.OK():
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	case o.Kind == runner.Completed:
		return &exitError{code: exitScriptFailed, msg: summary}
	case o.Kind == runner.TimedOut:
		return &exitError{code: exitTimedOut, msg: summary}
	default:
		return &exitError{code: exitStartFailed, msg: summary}
	}
}

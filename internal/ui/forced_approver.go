package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/mnxnorm/internal/tui"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// ForcedApprover approves after a visible countdown. Used for reset --force.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

func NewForcedApprover(verbose bool) mnx.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval counts down DefaultForceApprovalCountdown and approves
// unless ctx is cancelled first.
func (a *ForcedApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, tui.DangerStyle.Render("DANGER: every mnxnorm table in "+target+" will be dropped and recreated"))
	fmt.Fprintln(a.output, "All loaded entities, edges and run history will be lost.")
	fmt.Fprintln(a.output)

	countdownSeconds := int(mnx.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rResetting in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding with reset of %s...                              \n", target)
	return true, nil
}

var _ mnx.Approver = (*ForcedApprover)(nil)

package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/mnxnorm/internal/tui"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

// InteractiveApprover asks the user to type the reset target's name.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

func NewInteractiveApprover(verbose bool) mnx.Approver {
	return &InteractiveApprover{verbose: verbose, input: os.Stdin, output: os.Stderr}
}

// RequestApproval approves only when the typed name equals target.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, target string) (bool, error) {
	fmt.Fprintln(a.output)
	fmt.Fprintln(a.output, tui.WarningStyle.Render(fmt.Sprintf("WARNING: You are about to DROP and RECREATE the mnxnorm tables in '%s'", target)))
	fmt.Fprintln(a.output, "This will permanently delete all loaded entities, edges and run history!")
	fmt.Fprintf(a.output, "\nTo confirm, type '%s' and press Enter: ", target)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case line := <-inputChan:
		if line == target {
			fmt.Fprintln(a.output, "✓ Confirmed. Proceeding with reset...")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match '%s'. Operation cancelled.\n", line, target)
		return false, nil
	}
}

var _ mnx.Approver = (*InteractiveApprover)(nil)

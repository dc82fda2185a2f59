package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode is how mnxnorm talks to the user.
type Mode int

const (
	// ModeNonInteractive prints plain progress lines.
	ModeNonInteractive Mode = iota
	ModeInteractive
)

// NonInteractiveEnv forces ModeNonInteractive when set to "1".
const NonInteractiveEnv = "MNXNORM_NON_INTERACTIVE"

// DetectMode returns ModeNonInteractive when NonInteractiveEnv is "1", CI or
// NO_COLOR is set, or either stdin or stdout is not a terminal. Spinners and
// wizards are only shown in ModeInteractive.
func DetectMode() Mode {
	if os.Getenv(NonInteractiveEnv) == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive reports DetectMode() == ModeInteractive.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}

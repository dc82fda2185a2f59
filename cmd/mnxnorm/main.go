package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/mnxnorm/internal/cli"
	"github.com/vvka-141/mnxnorm/pkg/mnx"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(mnx.ExitPanic)
		}
	}()

	if os.Getenv("MNXNORM_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(mnx.ExitCodeForError(err))
	}
}

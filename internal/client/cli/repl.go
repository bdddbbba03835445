package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is what the prompt dispatches to. The real App satisfies it;
// tests can provide a lightweight stub.
type execIface interface {
	exec(ctx context.Context, cmd string, args []string) error
}

// runREPL starts a simple read–eval–print loop for lip-cli.
//
// Each line is split on whitespace; the first token names the command and
// the rest are its flags, exactly as on the command line:
//
//	token -id home -mode write
//	update -jwt eyJ... -ip 192.168.1.20
//	retrieve eyJ...
//
// Commands prompt for missing values on the same reader, so it must not be
// wrapped in another buffer. Command errors have already been shown to the
// user by the command itself and do not end the loop. The loop exits on EOF
// or when the user types "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("lip %s > ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if err := a.exec(ctx, cmd, parts[1:]); errors.Is(err, ErrUnknownCommand) {
			printlnFn("Unknown command:", cmd, "(type 'help' for commands)")
		}
	}
}

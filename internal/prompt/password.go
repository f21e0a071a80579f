// Package prompt reads secrets from a terminal without echoing them.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ErrNotTerminal is returned by Password when a prompt is required but stdin is
// not attached to a terminal.
var ErrNotTerminal = errors.New("stdin is not a terminal")

// IsTerminal reports whether r is a file attached to a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Password writes label to out and reads one line from stdin. On a terminal the
// input is not echoed.
func Password(stdin io.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	defer fmt.Fprintln(out) // the newline the user typed is not echoed

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for pipes and tests
	return readLine(stdin)
}

// TerminalPassword is Password restricted to terminals.
func TerminalPassword(stdin io.Reader, out io.Writer, label string) (string, error) {
	if !IsTerminal(stdin) {
		return "", ErrNotTerminal
	}
	return Password(stdin, out, label)
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

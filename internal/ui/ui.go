// Package ui defines the human-interaction contract for operations that
// need explicit consent: privileged repairs and license acceptance.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Decision is the outcome of a confirmation prompt.
type Decision int

const (
	Declined Decision = iota
	Accepted
)

// Interaction collects confirmations and notices from a human. Calls block
// until the human answers. There is no timeout on the wait; a pending
// confirmation is a suspended operation, not a stuck one.
type Interaction interface {
	// Confirm asks a yes/no question.
	Confirm(title, message string) Decision

	// Alert shows a notice and returns once acknowledged.
	Alert(title, message string)

	// ConfirmLicense presents a license text for acceptance.
	ConfirmLicense(title, text string) Decision
}

// Terminal implements Interaction on an interactive terminal. Prompts are
// written to Out and answers read line-wise from In.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

// NewTerminal returns a Terminal bound to stdin/stdout, or nil when stdin
// is not a terminal. Callers treat a nil Interaction as "no usable
// interactive channel".
func NewTerminal() *Terminal {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

func (t *Terminal) Confirm(title, message string) Decision {
	fmt.Fprintf(t.Out, "%s\n%s [y/N]: ", title, message)
	return t.readDecision()
}

func (t *Terminal) Alert(title, message string) {
	fmt.Fprintf(t.Out, "%s\n%s\n", title, message)
}

func (t *Terminal) ConfirmLicense(title, text string) Decision {
	fmt.Fprintf(t.Out, "%s\n\n%s\n\nAccept the license? [y/N]: ", title, text)
	return t.readDecision()
}

func (t *Terminal) readDecision() Decision {
	scanner := bufio.NewScanner(t.In)
	if !scanner.Scan() {
		return Declined
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return Accepted
	}
	return Declined
}

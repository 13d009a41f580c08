package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		answer Decision
	}{
		{name: "yes", input: "y\n", answer: Accepted},
		{name: "yes word", input: "yes\n", answer: Accepted},
		{name: "uppercase", input: "Y\n", answer: Accepted},
		{name: "no", input: "n\n", answer: Declined},
		{name: "empty defaults to declined", input: "\n", answer: Declined},
		{name: "closed input declines", input: "", answer: Declined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			term := &Terminal{In: strings.NewReader(tt.input), Out: &out}
			assert.Equal(t, tt.answer, term.Confirm("Title", "Proceed?"))
			assert.Contains(t, out.String(), "Proceed?")
		})
	}
}

func TestTerminalConfirmLicense(t *testing.T) {
	var out strings.Builder
	term := &Terminal{In: strings.NewReader("y\n"), Out: &out}
	assert.Equal(t, Accepted, term.ConfirmLicense("PUEL", "license text"))
	assert.Contains(t, out.String(), "license text")
}

func TestTerminalAlert(t *testing.T) {
	var out strings.Builder
	term := &Terminal{In: strings.NewReader(""), Out: &out}
	term.Alert("Problem", "Something needs attention")
	assert.Contains(t, out.String(), "Something needs attention")
}

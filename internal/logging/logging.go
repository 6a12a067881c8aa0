// Package logging builds the hclog logger shared by every btg command.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options selects the logger level and format.
type Options struct {
	// Verbose enables debug output. Quiet wins when both are set.
	Verbose bool
	// Quiet limits output to errors.
	Quiet bool
	// JSON switches to one JSON object per line.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// Level returns the hclog level implied by opts.
func (o Options) Level() hclog.Level {
	switch {
	case o.Quiet:
		return hclog.Error
	case o.Verbose:
		return hclog.Debug
	default:
		return hclog.Info
	}
}

// New creates a logger named "btg".
func New(opts Options) hclog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:        "btg",
		Level:       opts.Level(),
		Output:      out,
		JSONFormat:  opts.JSON,
		Color:       hclog.AutoColor,
		DisableTime: !opts.JSON,
	})
}

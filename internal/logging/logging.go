// Package logging builds the logger the binaries share.
package logging

import (
	"io"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logger writing to stderr through the standard log package.
// verbosity enables V(1) and higher levels up to the given value.
func New(name string, verbosity int) logr.Logger {
	return NewWriter(os.Stderr, name, verbosity)
}

// NewWriter is New with a chosen destination.
func NewWriter(w io.Writer, name string, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	l := stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None})
	if name != "" {
		l = l.WithName(name)
	}
	return l
}

// Package logutil provides the loggers shared by the compiler packages.
package logutil

import (
	"io"
	"log"
	"os"
)

// Discard is a Logger that ignores all loggings.
var Discard = log.New(io.Discard, "", 0)

// Stderr returns a logger writing plain lines to stderr with the given prefix.
func Stderr(prefix string) *log.Logger {
	return log.New(os.Stderr, prefix, 0)
}

// OrDiscard returns l, or Discard when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard
	}
	return l
}

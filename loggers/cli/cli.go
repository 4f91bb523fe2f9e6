// Package cli is an apex/log handler that writes human readable, optionally
// colourised, lines to a terminal or file.
package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
)

var (
	Default = New(os.Stderr, true)
	bold    = color.New(color.Bold)
	boldred = color.New(color.Bold, color.FgRed)
)

// Strings maps each level to a fixed width label.
var Strings = [...]string{
	log.DebugLevel: "DEBUG",
	log.InfoLevel:  " INFO",
	log.WarnLevel:  " WARN",
	log.ErrorLevel: "ERROR",
	log.FatalLevel: "FATAL",
}

type Handler struct {
	mu      sync.Mutex
	Writer  io.Writer
	Padding int

	// Stacktraces prints the stack of any error field below the log line.
	Stacktraces bool
}

// New returns a handler writing to w. Colours are only used when asked for
// and w is a file; anything else gets plain text.
func New(w io.Writer, useColors bool) *Handler {
	if f, ok := w.(*os.File); ok && useColors {
		return &Handler{Writer: colorable.NewColorable(f), Padding: 2}
	}
	return &Handler{Writer: colorable.NewNonColorable(w), Padding: 2}
}

// HandleLog implements log.Handler.
func (h *Handler) HandleLog(e *log.Entry) error {
	c := cli.Colors[e.Level]
	level := Strings[e.Level]
	names := e.Fields.Names()

	h.mu.Lock()
	defer h.mu.Unlock()

	c.Fprintf(h.Writer, "%s: [%s] %-25s", bold.Sprintf("%*s", h.Padding+1, level), e.Timestamp.Format(time.StampMilli), e.Message)
	for _, name := range names {
		if name == "source" {
			continue
		}
		fmt.Fprintf(h.Writer, " %s=%v", c.Sprint(name), e.Fields.Get(name))
	}
	fmt.Fprintln(h.Writer)

	if !h.Stacktraces {
		return nil
	}
	if err, ok := e.Fields.Get("error").(error); ok {
		// Attach a stack if the error has none, but skip the frames of the
		// logger itself.
		err = errors.WithStackDepthIf(err, 4)
		fmt.Fprintf(h.Writer, "\n%s\n%+v\n\n", boldred.Sprint("Stacktrace:"), err)
	}
	return nil
}

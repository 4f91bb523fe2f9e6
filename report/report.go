// Package report renders a finished scan for output that is not interactive,
// either as plain text or as JSON.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"emperror.dev/errors"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/klauspost/pgzip"

	"github.com/priyxstudio/burrow/filesystem"
	"github.com/priyxstudio/burrow/system"
)

var ErrUnknownFormat = errors.Sentinel("report: unknown format")

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Source is a scan that can be reported on.
type Source interface {
	Root() *filesystem.Node
	Progress() *filesystem.Progress
}

// Options limits how much of the tree ends up in a report.
type Options struct {
	// Depth is the number of directory levels below the root to include.
	Depth int
	// Top is the maximum number of entries listed per directory. Zero lists
	// every entry.
	Top int
}

type Entry struct {
	Name     string  `json:"name"`
	Size     uint64  `json:"size"`
	Kind     string  `json:"kind"`
	Dir      bool    `json:"dir"`
	Items    int     `json:"items,omitempty"`
	Children []Entry `json:"children,omitempty"`
}

type Report struct {
	ID          string              `json:"id"`
	Root        string              `json:"root"`
	Started     time.Time           `json:"started"`
	Duration    string              `json:"duration"`
	Files       uint64              `json:"files"`
	Directories uint64              `json:"directories"`
	Duplicates  uint64              `json:"duplicates"`
	Failures    uint64              `json:"failures"`
	Size        uint64              `json:"size"`
	Device      *system.DeviceUsage `json:"device,omitempty"`
	Entries     []Entry             `json:"entries"`
}

// Build collects the state of a scan into a report. It is meant to be called
// once the scan is done; on a running scan the sizes are lower bounds.
func Build(id string, src Source, device *system.DeviceUsage, opts Options) *Report {
	root := src.Root()
	p := src.Progress()
	if opts.Depth < 1 {
		opts.Depth = 1
	}
	return &Report{
		ID:          id,
		Root:        root.Path(),
		Started:     p.Started(),
		Duration:    p.Elapsed().Round(time.Millisecond).String(),
		Files:       p.Files(),
		Directories: p.Directories(),
		Duplicates:  p.Duplicates(),
		Failures:    p.Failures(),
		Size:        root.Aggregate(),
		Device:      device,
		Entries:     entries(root, opts.Depth, opts.Top),
	}
}

func entries(n *filesystem.Node, depth, top int) []Entry {
	children := n.SortedChildren()
	if top > 0 && len(children) > top {
		children = children[:top]
	}
	out := make([]Entry, 0, len(children))
	for _, c := range children {
		e := Entry{Name: c.Name(), Size: c.Aggregate(), Kind: c.Kind(), Dir: c.IsDir()}
		if c.IsDir() {
			e.Items = c.Len()
			if depth > 1 {
				e.Children = entries(c, depth-1, top)
			}
		}
		out = append(out, e)
	}
	return out
}

// CheckFormat returns ErrUnknownFormat unless format can be written. An
// empty format means text.
func CheckFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, "":
		return nil
	default:
		return errors.WithDetails(ErrUnknownFormat, "format", format)
	}
}

// Write renders the report in the named format.
func (r *Report) Write(w io.Writer, format string) error {
	if err := CheckFormat(format); err != nil {
		return err
	}
	if format == FormatJSON {
		return r.WriteJSON(w)
	}
	return r.WriteText(w)
}

// WriteJSON writes the report as a single indented JSON document.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.WrapIf(enc.Encode(r), "report: failed to encode json")
}

// WriteText writes the report as aligned, human readable text.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Scan %s of %s finished in %s\n", r.ID, r.Root, r.Duration)
	fmt.Fprintf(&b, "Total Scanned Files: %s  Directories: %s  Hard links skipped: %s  Unreadable: %s\n",
		humanize.Comma(int64(r.Files)), humanize.Comma(int64(r.Directories)),
		humanize.Comma(int64(r.Duplicates)), humanize.Comma(int64(r.Failures)))
	if d := r.Device; d != nil {
		fmt.Fprintf(&b, "Device: %s %s used of %s (%.1f%%)\n",
			strings.TrimSpace(d.Device+" "+d.Fstype), humanize.IBytes(d.UsedSpace), humanize.IBytes(d.TotalSpace), d.UsedPercent)
	}
	fmt.Fprintf(&b, "Total Disk Usage: %s\n\n", humanize.IBytes(r.Size))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.WithStack(err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeEntries(tw, r.Entries, 0)
	return errors.WithStack(tw.Flush())
}

func writeEntries(w io.Writer, list []Entry, level int) {
	for _, e := range list {
		name := strings.Repeat("  ", level) + e.Name
		if e.Dir {
			name = fmt.Sprintf("%s/ (%d)", name, e.Items)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", humanize.IBytes(e.Size), name, e.Kind)
		writeEntries(w, e.Children, level+1)
	}
}

// WriteFile writes the report to the file at path, replacing it if it exists.
// A name ending in ".gz" is gzip compressed.
func (r *Report) WriteFile(path, format string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.WrapIf(err, "report: failed to create file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.WithStack(cerr)
		}
	}()

	if !strings.HasSuffix(path, ".gz") {
		return r.Write(f, format)
	}
	gz := pgzip.NewWriter(f)
	if err := r.Write(gz, format); err != nil {
		gz.Close()
		return err
	}
	return errors.WrapIf(gz.Close(), "report: failed to compress")
}

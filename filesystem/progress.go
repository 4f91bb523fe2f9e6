package filesystem

import (
	"sync/atomic"
	"time"
)

// Progress holds the counters a scan updates as it runs. Every method is safe
// to call from any goroutine at any time and never blocks. The values are
// advisory and only meant for display.
type Progress struct {
	started  time.Time
	files    atomic.Uint64
	dirs     atomic.Uint64
	dupes    atomic.Uint64
	failures atomic.Uint64
	current  atomic.Pointer[string]
}

func newProgress() *Progress {
	p := &Progress{started: time.Now()}
	empty := ""
	p.current.Store(&empty)
	return p
}

// Files returns the number of regular files and symbolic links seen so far,
// including hard link duplicates that were not added to the tree.
func (p *Progress) Files() uint64 {
	return p.files.Load()
}

// Directories returns the number of directories whose listing has started.
func (p *Progress) Directories() uint64 {
	return p.dirs.Load()
}

// Duplicates returns the number of entries skipped because their inode had
// already been counted.
func (p *Progress) Duplicates() uint64 {
	return p.dupes.Load()
}

// Failures returns the number of directory scans that stopped early because
// of an error.
func (p *Progress) Failures() uint64 {
	return p.failures.Load()
}

// Current returns the path of the directory most recently started. With
// many workers this is only an approximation of what is being read.
func (p *Progress) Current() string {
	return *p.current.Load()
}

// Started returns the time the scan was created.
func (p *Progress) Started() time.Time {
	return p.started
}

// Elapsed returns the time since the scan was created.
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.started)
}

func (p *Progress) setCurrent(path string) {
	p.current.Store(&path)
}

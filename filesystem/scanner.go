package filesystem

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/juju/ratelimit"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/priyxstudio/burrow/internal/pool"
	"github.com/priyxstudio/burrow/internal/ufs"
)

var (
	ErrAlreadyStarted = errors.Sentinel("filesystem: scan already started")
	ErrNotDirectory   = errors.Sentinel("filesystem: scan root is not a directory")
)

// Option configures a Scanner.
type Option func(s *Scanner)

// WithExcludes skips every entry matching one of the gitignore style
// patterns. Patterns are matched against the path relative to the scan root.
func WithExcludes(patterns []string) Option {
	return func(s *Scanner) {
		var lines []string
		for _, p := range patterns {
			if p = strings.TrimSpace(p); p != "" {
				lines = append(lines, p)
			}
		}
		if len(lines) > 0 {
			s.ignore = ignore.CompileIgnoreLines(lines...)
		}
	}
}

// WithReadLimit limits how many directories are opened per second across
// all workers. A value less than one disables the limit.
func WithReadLimit(perSecond int) Option {
	return func(s *Scanner) {
		if perSecond > 0 {
			s.limiter = ratelimit.NewBucketWithRate(float64(perSecond), int64(perSecond))
		}
	}
}

// WithLogger sets the log entry that scan events are written to.
func WithLogger(l *log.Entry) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// Scanner walks a single directory tree using a worker pool, building a tree
// of nodes as it goes. A Scanner runs exactly one scan; the inode set and
// progress counters belong to that scan alone.
type Scanner struct {
	pool     *pool.Pool
	inodes   *InodeSet
	progress *Progress
	ignore   *ignore.GitIgnore
	limiter  *ratelimit.Bucket
	logger   *log.Entry

	mu     sync.Mutex
	root   *Node
	device ufs.Stat
}

// NewScanner returns a scanner that submits its work to p.
func NewScanner(p *pool.Pool, opts ...Option) *Scanner {
	s := &Scanner{
		pool:     p,
		inodes:   NewInodeSet(),
		progress: newProgress(),
		logger:   log.WithField("subsystem", "scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins scanning the directory at path and returns its node straight
// away. The node fills in as the scan progresses; use Done or Wait to learn
// when it is complete. Only entries on the same device as path are scanned.
func (s *Scanner) Start(path string) (*Node, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapIf(err, "filesystem: failed to resolve scan root")
	}
	st, err := ufs.StatPath(abs)
	if err != nil {
		return nil, errors.WrapIf(err, "filesystem: failed to stat scan root")
	}
	if !st.IsDir() {
		return nil, errors.WithDetails(ErrNotDirectory, "path", abs)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.root != nil {
		return nil, ErrAlreadyStarted
	}
	root := newNodeFromStat(filepath.Base(abs), abs, st, nil)
	s.root = root
	s.device = st
	if st.HasIno {
		s.inodes.Claim(st.Dev, st.Ino)
	}

	s.logger.WithFields(log.Fields{"path": abs, "workers": s.pool.Size()}).Debug("starting directory scan")
	s.pool.Submit(func() error {
		return s.scanDir(root)
	})
	return root, nil
}

// Root returns the root node of the scan, or nil if it has not started.
func (s *Scanner) Root() *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Progress returns the live counters of the scan.
func (s *Scanner) Progress() *Progress {
	return s.progress
}

// Active returns the number of directory scans currently executing.
func (s *Scanner) Active() int64 {
	return s.pool.Active()
}

// Queued returns the number of directories waiting for a free worker.
func (s *Scanner) Queued() int {
	return s.pool.Queued()
}

// Done reports whether the scan has started and every directory reachable
// from the root has been listed and classified.
func (s *Scanner) Done() bool {
	return s.Root() != nil && s.pool.Idle()
}

// Wait blocks until the scan is done or the context is cancelled.
func (s *Scanner) Wait(ctx context.Context) error {
	if s.Root() == nil {
		return errors.New("filesystem: scan not started")
	}
	return s.pool.Wait(ctx)
}

// scanDir lists one directory and classifies each entry. Subdirectories are
// submitted back to the pool as new units of work. Any error stops this
// directory only; whatever was already appended stays in the tree.
func (s *Scanner) scanDir(dir *Node) error {
	s.progress.setCurrent(dir.path)
	s.progress.dirs.Add(1)

	if s.limiter != nil {
		s.limiter.Wait(1)
	}

	d, err := ufs.OpenDir(dir.path)
	if err != nil {
		s.progress.failures.Add(1)
		return errors.WrapIf(err, "filesystem: failed to open directory")
	}
	defer d.Close()

	names, err := d.Names()
	if err != nil {
		s.progress.failures.Add(1)
		return errors.WrapIf(err, "filesystem: failed to read directory")
	}
	for _, name := range names {
		st, err := d.Lstat(name)
		if err != nil {
			s.progress.failures.Add(1)
			return errors.WrapIf(err, "filesystem: failed to stat directory entry")
		}
		s.classify(dir, name, st)
	}
	return nil
}

func (s *Scanner) classify(dir *Node, name string, st ufs.Stat) {
	// Do not cross into other mounted filesystems.
	if !st.SameDevice(s.device) {
		return
	}
	p := filepath.Join(dir.path, name)
	if s.excluded(p, st.IsDir()) {
		return
	}

	file := st.IsRegular() || st.IsSymlink()
	if file {
		s.progress.files.Add(1)
	}
	if st.HasIno && !s.inodes.Claim(st.Dev, st.Ino) {
		// Another name for an inode that has already been counted.
		s.progress.dupes.Add(1)
		return
	}

	switch {
	case file:
		dir.Append(newNodeFromStat(name, p, st, dir))
	case st.IsDir():
		child := newNodeFromStat(name, p, st, dir)
		dir.Append(child)
		s.pool.Submit(func() error {
			return s.scanDir(child)
		})
	}
}

func (s *Scanner) excluded(p string, isDir bool) bool {
	if s.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(s.root.path, p)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if s.ignore.MatchesPath(rel) {
		return true
	}
	return isDir && s.ignore.MatchesPath(rel+"/")
}

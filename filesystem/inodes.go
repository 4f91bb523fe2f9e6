package filesystem

import "sync"

type inodeKey struct {
	dev uint64
	ino uint64
}

// InodeSet records every inode that has already been attributed to a node
// during a single scan, so that hard links sharing one inode are only counted
// once. Which of the names wins is whichever is claimed first.
type InodeSet struct {
	mu   sync.Mutex
	seen map[inodeKey]struct{}
}

// NewInodeSet returns an empty set.
func NewInodeSet() *InodeSet {
	return &InodeSet{seen: make(map[inodeKey]struct{})}
}

// Claim inserts the inode and reports whether it was not already present.
// The test and the insert happen under one lock.
func (s *InodeSet) Claim(dev, ino uint64) bool {
	k := inodeKey{dev: dev, ino: ino}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	return true
}

// Len returns the number of distinct inodes claimed so far.
func (s *InodeSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

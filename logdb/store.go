package logdb

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"sync"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_]{1,32}$`)

// Entry is a logical, user-facing record.
type Entry struct {
	Seqnum    uint64 // 0 on Append means "assign next"
	Timestamp uint64 // 0 on Append means "stamp with wall clock"
	Metadata  []byte
	Data      []byte
}

// SearchMode selects which bound Search returns.
type SearchMode int

const (
	// Lower returns the smallest seqnum whose timestamp is >= target.
	Lower SearchMode = iota
	// Upper returns the smallest seqnum whose timestamp is > target.
	Upper
)

// Stats is the result of a range-statistics query.
type Stats struct {
	NumEntries uint64
	IndexSize  int64
	DataSize   int64
}

// Store is a single open logdb instance: a pair of files under dir named
// name+".dat" and name+".idx", the in-memory state cache, and the two
// advisory locks disciplining the single writer / many readers model
// described in the package-level docs.
type Store struct {
	dir  string
	name string

	dat *filePair
	idx *filePair

	forceSync bool
	log       *slog.Logger

	// dataMu guards only the state block; held briefly.
	dataMu sync.Mutex
	st     state

	// fileMu guards file-level coherence. Readers (read/search/stats)
	// take it shared; rollback/purge take it exclusive. Append
	// deliberately does not take it: it only grows the files and
	// publishes state after flushing, so a concurrent reader observes
	// either the pre- or post-append state, never a torn one.
	fileMu sync.RWMutex
}

// Option configures a Store at Open time.
type Option func(*options)

type options struct {
	check     bool
	forceSync bool
	logger    *slog.Logger
}

// WithCheck enables the deep validation walk over both files on open:
// every record's checksum, seqnum and timestamp monotonicity. Without it,
// open trusts well-formed records and repairs only a torn tail.
func WithCheck(check bool) Option {
	return func(o *options) { o.check = check }
}

// WithSync enables fdatasync of the data file after every append and
// rollback. Purge syncs its rewritten data file whether or not this is set.
func WithSync(sync bool) Option {
	return func(o *options) { o.forceSync = sync }
}

// WithLogger attaches a structured logger; recovery and destructive
// operations log to it. A nil logger (the default) disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func validateName(name string) error {
	if !nameRe.MatchString(name) {
		return newErr(CodeName, fmt.Errorf("invalid store name %q", name))
	}
	return nil
}

func datPath(dir, name string) string { return filepath.Join(dir, name+".dat") }
func idxPath(dir, name string) string { return filepath.Join(dir, name+".idx") }
func tmpPath(dir, name string) string { return filepath.Join(dir, name+".tmp") }

// Milestone returns the cached milestone value without a Stats round trip.
func (s *Store) Milestone() uint64 {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	return s.st.milestone
}

// Version identifies the on-disk format this package reads and writes.
func Version() string {
	return fmt.Sprintf("logdb/%d", formatVersion)
}

func (s *Store) logf(msg string, args ...any) {
	if s.log != nil {
		s.log.Info(msg, args...)
	}
}

package logdb

import "os"

// filePair holds two independent OS handles to the same file: one used
// exclusively by write-side code (append, rollback, purge, recovery) and
// one used exclusively by read-side code (read, search, stats). Keeping
// them separate means a reader's Seek never disturbs the writer's
// position, the idiom the teacher's paired-file stores use throughout
// (github.com/kjk/common/appendstore.Store keeps a *os.File for writing
// and reopens the path read-only for iteration).
type filePair struct {
	path string
	w    *os.File // read-write handle, writer-owned
	r    *os.File // read-only handle, reader-owned
}

func openFilePair(path string) (*filePair, error) {
	w, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	r, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		w.Close()
		return nil, err
	}
	return &filePair{path: path, w: w, r: r}, nil
}

func (p *filePair) close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.w != nil {
		if e := p.w.Close(); e != nil {
			err = e
		}
		p.w = nil
	}
	if p.r != nil {
		if e := p.r.Close(); e != nil && err == nil {
			err = e
		}
		p.r = nil
	}
	return err
}

// size returns the current file size as seen by the write handle.
func (p *filePair) size() (int64, error) {
	fi, err := p.w.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// readAt reads len(buf) bytes at off using the read-only handle, leaving
// the writer's file position untouched.
func (p *filePair) readAt(buf []byte, off int64) error {
	_, err := p.r.ReadAt(buf, off)
	return err
}

// writeAt writes buf at off using the write handle.
func (p *filePair) writeAt(buf []byte, off int64) error {
	_, err := p.w.WriteAt(buf, off)
	return err
}

// flush is a no-op: writes go through writeAt directly against the OS
// file, so there is nothing buffered at this layer to push out. It is
// kept as an explicit step so the call sites read the same way the spec
// describes them (write, then flush, then optionally fdatasync).
func (p *filePair) flush() error {
	return nil
}

// fdatasync forces the write handle's dirty pages to stable storage.
// The standard library exposes fsync (File.Sync), not the lighter
// fdatasync; that is an acceptable, safe superset here.
func (p *filePair) fdatasync() error {
	return p.w.Sync()
}

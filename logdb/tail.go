package logdb

import (
	"bytes"
	"io"
)

const zeroChunkSize = 64 * 1024

var zeroChunk = make([]byte, zeroChunkSize)

// zeroiseFromOffset overwrites every byte of p from off to the current
// end of file with zero and truncates the writer's view back to off
// logically (the file stays the same length, contents zeroed). If the
// file is already all zero from off to end, it does nothing. Writes go
// through WriteAt, so neither handle's file position moves.
func zeroiseFromOffset(p *filePair, off int64) error {
	size, err := p.size()
	if err != nil {
		return err
	}
	if off >= size {
		return nil
	}

	alreadyZero, err := isZeroFrom(p, off, size)
	if err != nil {
		return err
	}
	if alreadyZero {
		return nil
	}

	remaining := size - off
	pos := off
	for remaining > 0 {
		n := int64(zeroChunkSize)
		if n > remaining {
			n = remaining
		}
		if err := p.writeAt(zeroChunk[:n], pos); err != nil {
			return err
		}
		pos += n
		remaining -= n
	}
	return p.flush()
}

// isZeroFrom reports whether every byte in [off, end) of p is already
// zero, read through the reader handle to avoid disturbing the writer's
// position.
func isZeroFrom(p *filePair, off, end int64) (bool, error) {
	buf := make([]byte, zeroChunkSize)
	pos := off
	for pos < end {
		n := int64(len(buf))
		if pos+n > end {
			n = end - pos
		}
		chunk := buf[:n]
		if err := p.readAt(chunk, pos); err != nil && err != io.EOF {
			return false, err
		}
		if !bytes.Equal(chunk, zeroChunk[:n]) {
			return false, nil
		}
		pos += n
	}
	return true, nil
}

package logdb

import (
	"encoding/binary"
	"errors"
	"os"

	"github.com/kjk/logdb/atomicfile"
)

// Purge removes every record with seqnum < threshold, returning the
// count removed (0 if there was nothing to purge). Unlike Rollback this
// rewrites the data file: the retained records are copied into a fresh
// "<name>.tmp" file which is renamed atomically over the data file
// (spec §4.11), using the same temp-file-then-rename protocol as the
// teacher's atomicfile package.
func (s *Store) Purge(threshold uint64) (int, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	s.dataMu.Lock()
	st := s.st
	s.dataMu.Unlock()

	if st.empty() || threshold <= st.firstSeqnum {
		return 0, nil
	}

	dp := datPath(s.dir, s.name)
	ip := idxPath(s.dir, s.name)

	if threshold > st.lastSeqnum {
		return s.purgeAll(dp, ip, st)
	}

	recThresh, err := s.readIdxBySeqnum(st.firstSeqnum, threshold)
	if err != nil {
		return 0, err
	}
	if recThresh.Seqnum != threshold {
		return 0, newErr(CodeFmtIdx, errors.New("index record does not match purge threshold"))
	}

	tp := tmpPath(s.dir, s.name)
	af, err := atomicfile.NewAt(tp, dp)
	if err != nil {
		return 0, newErr(CodeTmpFile, err)
	}

	hdrBuf := make([]byte, datHeaderSize)
	encodeFileHeader(hdrBuf, datTextBlob, st.milestone, false)
	if _, err := af.WriteAt(hdrBuf, 0); err != nil {
		af.RemoveIfNotClosed()
		return 0, newErr(CodeWriteDat, err)
	}

	if err := s.copyRetainedRecords(af, int64(recThresh.Offset), st.dataEnd); err != nil {
		af.RemoveIfNotClosed()
		return 0, err
	}
	if err := af.Sync(); err != nil {
		af.RemoveIfNotClosed()
		return 0, newErr(CodeWriteDat, err)
	}

	if err := s.dat.close(); err != nil {
		return 0, newErr(CodeWriteDat, err)
	}
	if err := s.idx.close(); err != nil {
		return 0, newErr(CodeWriteIdx, err)
	}
	if err := os.Remove(ip); err != nil && !os.IsNotExist(err) {
		return 0, newErr(CodeWriteIdx, err)
	}

	// Past this point the rename is the only remaining step; a crash
	// before it leaves the old store intact, a crash after it leaves a
	// store whose index the next Open will rebuild from the data file.
	if err := af.Close(); err != nil {
		return 0, newErr(CodeTmpFile, err)
	}

	if err := createFile(ip, idxHeaderSize, idxTextBlob, false); err != nil {
		return 0, newErr(CodeOpenIdx, err)
	}
	dat, err := openFilePair(dp)
	if err != nil {
		return 0, newErr(CodeOpenDat, err)
	}
	s.dat = dat
	idx, err := openFilePair(ip)
	if err != nil {
		return 0, newErr(CodeOpenIdx, err)
	}
	s.idx = idx

	removed := threshold - st.firstSeqnum

	s.dataMu.Lock()
	s.st = state{}
	s.dataMu.Unlock()
	if err := s.openDataFile(false); err != nil {
		return 0, err
	}
	if err := s.rebuildIndexFromScratch(); err != nil {
		return 0, err
	}

	s.logf("purge complete", "threshold", threshold, "removed", removed)
	return int(removed), nil
}

func (s *Store) copyRetainedRecords(af *atomicfile.File, start, end int64) error {
	buf := make([]byte, zeroChunkSize)
	srcPos := start
	dstPos := int64(datHeaderSize)
	for srcPos < end {
		n := int64(len(buf))
		if n > end-srcPos {
			n = end - srcPos
		}
		chunk := buf[:n]
		if err := s.dat.readAt(chunk, srcPos); err != nil {
			return newErr(CodeReadDat, err)
		}
		if _, err := af.WriteAt(chunk, dstPos); err != nil {
			return newErr(CodeWriteDat, err)
		}
		srcPos += n
		dstPos += n
	}
	return nil
}

// purgeAll handles threshold > last_seqnum: the entire store is emptied.
func (s *Store) purgeAll(dp, ip string, st state) (int, error) {
	total := st.lastSeqnum - st.firstSeqnum + 1

	if err := s.dat.close(); err != nil {
		return 0, newErr(CodeWriteDat, err)
	}
	if err := s.idx.close(); err != nil {
		return 0, newErr(CodeWriteIdx, err)
	}
	if err := os.Remove(dp); err != nil {
		return 0, newErr(CodeWriteDat, err)
	}
	if err := os.Remove(ip); err != nil {
		return 0, newErr(CodeWriteIdx, err)
	}
	if err := createFile(dp, datHeaderSize, datTextBlob, true); err != nil {
		return 0, newErr(CodeOpenDat, err)
	}
	if err := createFile(ip, idxHeaderSize, idxTextBlob, false); err != nil {
		return 0, newErr(CodeOpenIdx, err)
	}
	dat, err := openFilePair(dp)
	if err != nil {
		return 0, newErr(CodeOpenDat, err)
	}
	s.dat = dat
	idx, err := openFilePair(ip)
	if err != nil {
		return 0, newErr(CodeOpenIdx, err)
	}
	s.idx = idx

	if st.milestone != 0 {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, st.milestone)
		if err := s.dat.writeAt(buf, datHeaderSize-8); err != nil {
			return 0, newErr(CodeWriteDat, err)
		}
	}

	s.dataMu.Lock()
	s.st = state{milestone: st.milestone}
	s.dataMu.Unlock()

	s.logf("purge emptied store", "removed", total)
	return int(total), nil
}

package logdb

import (
	"errors"
	"os"

	"github.com/kjk/logdb/u"
)

// Open opens (creating if necessary) the store named name under dir.
// name must match [A-Za-z0-9_]{1,32}. See WithCheck, WithSync, and
// WithLogger for the available options.
func Open(dir, name string, opts ...Option) (*Store, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, newErr(CodePath, errors.New("empty directory"))
	}
	if !u.DirExists(dir) {
		return nil, newErr(CodePath, errors.New("not a directory: "+dir))
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dp := datPath(dir, name)
	ip := idxPath(dir, name)

	datExists := u.FileExists(dp)
	idxExists := u.FileExists(ip)
	if !datExists {
		if idxExists {
			_ = os.Remove(ip)
			idxExists = false
		}
		if err := createFile(dp, datHeaderSize, datTextBlob, true); err != nil {
			return nil, newErr(CodeOpenDat, err)
		}
	}
	if !idxExists {
		if err := createFile(ip, idxHeaderSize, idxTextBlob, false); err != nil {
			return nil, newErr(CodeOpenIdx, err)
		}
	}

	s := &Store{dir: dir, name: name, forceSync: o.forceSync, log: o.logger}

	dat, err := openFilePair(dp)
	if err != nil {
		return nil, newErr(CodeOpenDat, err)
	}
	s.dat = dat

	if err := s.openDataFile(o.check); err != nil {
		s.Close()
		return nil, err
	}

	idx, err := openFilePair(ip)
	if err != nil {
		s.Close()
		return nil, newErr(CodeOpenIdx, err)
	}
	s.idx = idx

	if err := s.openIndexFile(o.check); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func createFile(path string, headerSize int64, text string, isDat bool) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	buf := make([]byte, headerSize)
	encodeFileHeader(buf, text, 0, !isDat)
	if _, err := f.WriteAt(buf, 0); err != nil {
		return err
	}
	return f.Sync()
}

// openDataFile implements spec §4.5 steps 2-4: validate the header, find
// (and validate) the first record, and, in check mode, walk the rest of
// the data file verifying every invariant. It populates s.st's first/last
// fields and dataEnd; the index-side walk (steps 5-12) happens separately
// in openIndexFile.
func (s *Store) openDataFile(check bool) error {
	size, err := s.dat.size()
	if err != nil {
		return newErr(CodeReadDat, err)
	}
	hdrBuf := make([]byte, datHeaderSize)
	if err := s.dat.readAt(hdrBuf, 0); err != nil {
		return newErr(CodeReadDat, err)
	}
	hdr, err := decodeFileHeader(hdrBuf, false)
	if err != nil {
		return newErr(CodeFmtDat, err)
	}
	if hdr.Version != formatVersion {
		return newErr(CodeFmtDat, errBadVersion)
	}
	s.st.milestone = hdr.Milestone

	endOff, lastSn, lastTs, count, rerr := walkDataRecords(s.dat, datHeaderSize, 0, 0, size, false, 1, nil)
	if rerr != nil {
		return rerr
	}
	if count == 0 {
		s.logf("data file has no valid first record, store treated as empty")
		return nil
	}

	s.st.firstSeqnum = lastSn
	s.st.firstTimestamp = lastTs
	s.st.lastSeqnum = lastSn
	s.st.lastTimestamp = lastTs
	s.st.dataEnd = endOff

	if !check {
		return nil
	}

	endOff, lastSn, lastTs, _, rerr = walkDataRecords(s.dat, endOff, lastSn, lastTs, size, true, 0, nil)
	if rerr != nil {
		return rerr
	}
	s.st.lastSeqnum = lastSn
	s.st.lastTimestamp = lastTs
	s.st.dataEnd = endOff
	return nil
}

// openIndexFile implements spec §4.5 steps 5-12.
func (s *Store) openIndexFile(check bool) error {
	err := s.reconcileIndex(check)
	if err == nil {
		return nil
	}
	ie, ok := err.(*Error)
	if !ok || !isIndexRebuildable(ie.Code) {
		return err
	}

	s.logf("rebuilding index from data file", "reason", ie.Code.String())
	if err := s.idx.close(); err != nil {
		return newErr(CodeWriteIdx, err)
	}
	if err := os.Remove(s.idx.path); err != nil && !os.IsNotExist(err) {
		return newErr(CodeWriteIdx, err)
	}
	if err := createFile(s.idx.path, idxHeaderSize, idxTextBlob, false); err != nil {
		return newErr(CodeOpenIdx, err)
	}
	idx, err := openFilePair(s.idx.path)
	if err != nil {
		return newErr(CodeOpenIdx, err)
	}
	s.idx = idx

	if rerr := s.rebuildIndexFromScratch(); rerr != nil {
		return rerr
	}
	return nil
}

func isIndexRebuildable(c Code) bool {
	switch c {
	case CodeReadIdx, CodeWriteIdx, CodeFmtIdx, CodeOpenIdx:
		return true
	}
	return false
}

// reconcileIndex validates the index header, cross-validates (or
// discovers) the last valid index record, zeroises any stale tail, and
// then walks the data file forward from the last indexed record to pick
// up anything the data file has that the index does not yet reflect.
func (s *Store) reconcileIndex(check bool) error {
	hdrBuf := make([]byte, idxHeaderSize)
	if err := s.idx.readAt(hdrBuf, 0); err != nil {
		return newErr(CodeReadIdx, err)
	}
	hdr, err := decodeFileHeader(hdrBuf, true)
	if err != nil {
		return newErr(CodeFmtIdx, err)
	}
	if hdr.Version != formatVersion {
		return newErr(CodeFmtIdx, errBadVersion)
	}

	size, err := s.idx.size()
	if err != nil {
		return newErr(CodeReadIdx, err)
	}
	nrec := (size - idxHeaderSize) / idxRecSize

	if nrec > 0 {
		first, err := s.readIdxRecord(0)
		if err != nil {
			return newErr(CodeReadIdx, err)
		}
		if s.st.firstSeqnum != 0 && (first.Seqnum != s.st.firstSeqnum || first.Timestamp != s.st.firstTimestamp) {
			return newErr(CodeFmtIdx, errors.New("first index record does not match first data record"))
		}
	}

	var lastGood int64 // count of validated index records
	var lastOffset int64 = datHeaderSize
	var lastSn, lastTs uint64

	if check {
		for i := int64(0); i < nrec; i++ {
			rec, err := s.readIdxRecord(i)
			if err != nil {
				return newErr(CodeReadIdx, err)
			}
			if rec.Seqnum == 0 {
				break
			}
			hdrBuf := make([]byte, dataRecHeaderSize)
			if err := s.dat.readAt(hdrBuf, int64(rec.Offset)); err != nil {
				return newErr(CodeFmtIdx, err)
			}
			dh := decodeDataRecHeader(hdrBuf)
			if dh.Seqnum != rec.Seqnum || dh.Timestamp != rec.Timestamp {
				return newErr(CodeFmtIdx, errors.New("index/data mismatch"))
			}
			lastGood = i + 1
			lastOffset = int64(rec.Offset) + recSize(dh.MetadataLen, dh.DataLen)
			lastSn, lastTs = rec.Seqnum, rec.Timestamp
		}
	} else {
		lastGood, lastOffset, lastSn, lastTs, err = s.scanIndexBackward(size)
		if err != nil {
			return err
		}
	}

	if err := idxTruncateAfter(s.idx, lastGood); err != nil {
		return newErr(CodeWriteIdx, err)
	}

	if lastGood == 0 && s.st.firstSeqnum != 0 {
		firstBuf := make([]byte, dataRecHeaderSize)
		if err := s.dat.readAt(firstBuf, datHeaderSize); err != nil {
			return newErr(CodeReadDat, err)
		}
		fh := decodeDataRecHeader(firstBuf)
		if err := s.appendIdxRecord(idxRecord{Seqnum: s.st.firstSeqnum, Timestamp: s.st.firstTimestamp, Offset: uint64(datHeaderSize)}); err != nil {
			return newErr(CodeWriteIdx, err)
		}
		lastGood = 1
		lastOffset = datHeaderSize + recSize(fh.MetadataLen, fh.DataLen)
		lastSn, lastTs = s.st.firstSeqnum, s.st.firstTimestamp
	}

	return s.rebuildTailFrom(lastOffset, lastSn, lastTs)
}

// scanIndexBackward implements spec §4.5 step 8 (check = false): back off
// any partial trailing record, then scan backwards for the last
// non-zero-seqnum record.
func (s *Store) scanIndexBackward(size int64) (count int64, offset int64, sn, ts uint64, err error) {
	n := (size - idxHeaderSize) / idxRecSize
	for i := n - 1; i >= 0; i-- {
		rec, rerr := s.readIdxRecord(i)
		if rerr != nil {
			return 0, datHeaderSize, 0, 0, newErr(CodeReadIdx, rerr)
		}
		if rec.Seqnum != 0 {
			hdrBuf := make([]byte, dataRecHeaderSize)
			if derr := s.dat.readAt(hdrBuf, int64(rec.Offset)); derr != nil {
				return 0, datHeaderSize, 0, 0, newErr(CodeFmtIdx, derr)
			}
			dh := decodeDataRecHeader(hdrBuf)
			return i + 1, int64(rec.Offset) + recSize(dh.MetadataLen, dh.DataLen), rec.Seqnum, rec.Timestamp, nil
		}
	}
	return 0, datHeaderSize, 0, 0, nil
}

// rebuildTailFrom walks the data file from offset forward, appending an
// index record for any record the index does not yet have, then zeroises
// a torn data tail. This is spec §4.5 step 11.
func (s *Store) rebuildTailFrom(offset int64, sn, ts uint64) error {
	size, err := s.dat.size()
	if err != nil {
		return newErr(CodeReadDat, err)
	}
	endOff, lastSn, lastTs, _, rerr := walkDataRecords(s.dat, offset, sn, ts, size, false, 0, func(h dataRecHeader, off int64) *Error {
		if e := s.appendIdxRecord(idxRecord{Seqnum: h.Seqnum, Timestamp: h.Timestamp, Offset: uint64(off)}); e != nil {
			return newErr(CodeWriteIdx, e)
		}
		if s.st.firstSeqnum == 0 {
			s.st.firstSeqnum = h.Seqnum
			s.st.firstTimestamp = h.Timestamp
		}
		return nil
	})
	if rerr != nil {
		return rerr
	}
	if lastSn != 0 {
		s.st.lastSeqnum = lastSn
		s.st.lastTimestamp = lastTs
	}
	s.st.dataEnd = endOff
	return nil
}

// rebuildIndexFromScratch is used after the index file has been deleted
// and recreated: it walks the whole data file and writes an index record
// for every valid record found.
func (s *Store) rebuildIndexFromScratch() error {
	s.st.firstSeqnum = 0
	s.st.firstTimestamp = 0
	s.st.lastSeqnum = 0
	s.st.lastTimestamp = 0
	return s.rebuildTailFrom(datHeaderSize, 0, 0)
}

func (s *Store) readIdxRecord(i int64) (idxRecord, error) {
	buf := make([]byte, idxRecSize)
	if err := s.idx.readAt(buf, idxHeaderSize+i*idxRecSize); err != nil {
		return idxRecord{}, err
	}
	return decodeIdxRecord(buf), nil
}

func (s *Store) appendIdxRecord(r idxRecord) error {
	n, err := s.idx.size()
	if err != nil {
		return err
	}
	i := (n - idxHeaderSize) / idxRecSize
	buf := make([]byte, idxRecSize)
	encodeIdxRecord(buf, r)
	if err := s.idx.writeAt(buf, idxHeaderSize+i*idxRecSize); err != nil {
		return err
	}
	return s.idx.flush()
}

func idxTruncateAfter(idx *filePair, count int64) error {
	return zeroiseFromOffset(idx, idxHeaderSize+count*idxRecSize)
}

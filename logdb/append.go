package logdb

import "time"

// Append writes entries to the store in order. It returns the number of
// entries durably written; on a mid-batch failure that count is less
// than len(entries), and the error identifies the rejected entry's
// position via (*Error).Pos. Append never takes the file lock: it only
// grows the files and publishes state after flushing, so concurrent
// readers observe either the pre- or post-append state, never a torn one.
func (s *Store) Append(entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	s.dataMu.Lock()
	st := s.st
	s.dataMu.Unlock()

	written := 0
	var appendErr error
	for i, e := range entries {
		seqnum := e.Seqnum
		if seqnum == 0 {
			if st.empty() {
				seqnum = 1
			} else {
				seqnum = st.lastSeqnum + 1
			}
		} else if !st.empty() && seqnum != st.lastSeqnum+1 {
			appendErr = newEntryErr(CodeEntrySeqnum, i)
			break
		}

		timestamp := e.Timestamp
		if timestamp == 0 {
			now := uint64(time.Now().UnixMilli())
			if now < st.lastTimestamp {
				now = st.lastTimestamp
			}
			timestamp = now
		} else if timestamp < st.lastTimestamp {
			appendErr = newEntryErr(CodeEntryTimestamp, i)
			break
		}

		h := dataRecHeader{
			Seqnum:      seqnum,
			Timestamp:   timestamp,
			MetadataLen: uint32(len(e.Metadata)),
			DataLen:     uint32(len(e.Data)),
		}
		h.Checksum = dataRecChecksum(h, e.Metadata, e.Data)

		off := st.dataEnd
		if off == 0 {
			off = datHeaderSize
		}

		hdrBuf := make([]byte, dataRecHeaderSize)
		encodeDataRecHeader(hdrBuf, h)
		if err := s.dat.writeAt(hdrBuf, off); err != nil {
			appendErr = newErr(CodeWriteDat, err)
			break
		}
		if len(e.Metadata) > 0 {
			if err := s.dat.writeAt(e.Metadata, off+dataRecHeaderSize); err != nil {
				appendErr = newErr(CodeWriteDat, err)
				break
			}
		}
		if len(e.Data) > 0 {
			if err := s.dat.writeAt(e.Data, off+dataRecHeaderSize+int64(len(e.Metadata))); err != nil {
				appendErr = newErr(CodeWriteDat, err)
				break
			}
		}

		idxBuf := make([]byte, idxRecSize)
		encodeIdxRecord(idxBuf, idxRecord{Seqnum: seqnum, Timestamp: timestamp, Offset: uint64(off)})
		idxOff := idxHeaderSize
		if st.firstSeqnum != 0 {
			idxOff = int(idxOffset(st.firstSeqnum, seqnum))
		}
		if err := s.idx.writeAt(idxBuf, int64(idxOff)); err != nil {
			appendErr = newErr(CodeWriteIdx, err)
			break
		}

		if st.empty() {
			st.firstSeqnum = seqnum
			st.firstTimestamp = timestamp
		}
		st.lastSeqnum = seqnum
		st.lastTimestamp = timestamp
		st.dataEnd = off + recSize(h.MetadataLen, h.DataLen)
		written++
	}

	if err := s.dat.flush(); err != nil {
		return written, newErr(CodeWriteDat, err)
	}
	if err := s.idx.flush(); err != nil {
		return written, newErr(CodeWriteIdx, err)
	}
	if s.forceSync {
		if err := s.dat.fdatasync(); err != nil {
			return written, newErr(CodeWriteDat, err)
		}
	}

	s.dataMu.Lock()
	s.st = st
	s.dataMu.Unlock()

	return written, appendErr
}

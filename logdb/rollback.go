package logdb

// Rollback removes every record with seqnum > threshold, returning the
// count removed (0 if there was nothing to remove). The index is
// zeroised and flushed before the data file's tail is zeroised, so that
// a crash mid-rollback always leaves behind a valid, shorter log (spec
// §4.10, §9).
func (s *Store) Rollback(threshold uint64) (int, error) {
	s.fileMu.Lock()
	defer s.fileMu.Unlock()

	s.dataMu.Lock()
	st := s.st
	s.dataMu.Unlock()

	if st.lastSeqnum <= threshold {
		return 0, nil
	}

	floor := st.firstSeqnum
	if floor == 0 {
		floor = 1
	}
	base := floor - 1
	if threshold > base {
		base = threshold
	}
	removed := st.lastSeqnum - base

	becomesEmpty := threshold < st.firstSeqnum

	var newIdxCount int64
	var newLastTimestamp uint64
	var newDataEnd int64

	if becomesEmpty {
		newIdxCount = 0
		newDataEnd = datHeaderSize
	} else {
		recThresh, err := s.readIdxBySeqnum(st.firstSeqnum, threshold)
		if err != nil {
			return 0, err
		}
		recNext, err := s.readIdxBySeqnum(st.firstSeqnum, threshold+1)
		if err != nil {
			return 0, err
		}
		newIdxCount = int64(threshold - st.firstSeqnum + 1)
		newLastTimestamp = recThresh.Timestamp
		newDataEnd = int64(recNext.Offset)
	}

	if err := idxTruncateAfter(s.idx, newIdxCount); err != nil {
		return 0, newErr(CodeWriteIdx, err)
	}
	if err := s.idx.flush(); err != nil {
		return 0, newErr(CodeWriteIdx, err)
	}

	s.dataMu.Lock()
	if becomesEmpty {
		s.st = state{milestone: s.st.milestone}
	} else {
		s.st.lastSeqnum = threshold
		s.st.lastTimestamp = newLastTimestamp
		s.st.dataEnd = newDataEnd
	}
	s.dataMu.Unlock()

	if err := zeroiseFromOffset(s.dat, newDataEnd); err != nil {
		return 0, newErr(CodeWriteDat, err)
	}
	if err := s.dat.flush(); err != nil {
		return 0, newErr(CodeWriteDat, err)
	}
	if s.forceSync {
		if err := s.dat.fdatasync(); err != nil {
			return 0, newErr(CodeWriteDat, err)
		}
	}

	s.logf("rollback complete", "threshold", threshold, "removed", removed)
	return int(removed), nil
}

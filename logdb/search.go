package logdb

// Search returns, for mode == Lower, the smallest seqnum whose timestamp
// is >= timestamp; for mode == Upper, the smallest seqnum whose
// timestamp is > timestamp. It returns ErrNotFound if no such record
// exists.
func (s *Store) Search(timestamp uint64, mode SearchMode) (uint64, error) {
	s.fileMu.RLock()
	defer s.fileMu.RUnlock()

	s.dataMu.Lock()
	st := s.st
	s.dataMu.Unlock()

	if st.empty() {
		return 0, newErr(CodeNotFound, nil)
	}

	switch mode {
	case Lower:
		if timestamp > st.lastTimestamp {
			return 0, newErr(CodeNotFound, nil)
		}
		if timestamp <= st.firstTimestamp {
			return st.firstSeqnum, nil
		}
	case Upper:
		if timestamp >= st.lastTimestamp {
			return 0, newErr(CodeNotFound, nil)
		}
		if timestamp < st.firstTimestamp {
			return st.firstSeqnum, nil
		}
	}

	sn1, ts1 := st.firstSeqnum, st.firstTimestamp
	sn2, ts2 := st.lastSeqnum, st.lastTimestamp

	for sn1+1 < sn2 && ts1 != ts2 {
		mid := sn1 + (sn2-sn1)/2
		rec, err := s.readIdxBySeqnum(st.firstSeqnum, mid)
		if err != nil {
			return 0, err
		}
		switch mode {
		case Lower:
			if rec.Timestamp >= timestamp {
				sn2, ts2 = rec.Seqnum, rec.Timestamp
			} else {
				sn1, ts1 = rec.Seqnum, rec.Timestamp
			}
		case Upper:
			if rec.Timestamp > timestamp {
				sn2, ts2 = rec.Seqnum, rec.Timestamp
			} else {
				sn1, ts1 = rec.Seqnum, rec.Timestamp
			}
		}
	}

	if mode != Lower {
		return sn2, nil
	}

	// The bisection endpoint sn2 satisfies timestamp[sn2] >= timestamp,
	// but with duplicate timestamps it may not be the smallest such
	// seqnum: walk backward while the predecessor shares the same
	// timestamp, to land on the true mathematical lower bound (see
	// DESIGN.md, search(LOWER) open question).
	result := sn2
	for result > st.firstSeqnum {
		prev, err := s.readIdxBySeqnum(st.firstSeqnum, result-1)
		if err != nil {
			return 0, err
		}
		if prev.Timestamp >= timestamp {
			result = prev.Seqnum
		} else {
			break
		}
	}
	return result, nil
}

func (s *Store) readIdxBySeqnum(firstSeqnum, sn uint64) (idxRecord, error) {
	buf := make([]byte, idxRecSize)
	if err := s.idx.readAt(buf, idxOffset(firstSeqnum, sn)); err != nil {
		return idxRecord{}, newErr(CodeReadIdx, err)
	}
	return decodeIdxRecord(buf), nil
}

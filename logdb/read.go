package logdb

// Read returns up to maxCount entries starting at startSeqnum, in
// ascending contiguous seqnum order. It returns ErrNotFound (wrapped in
// *Error) if the store is empty, startSeqnum is 0, or startSeqnum lies
// outside [first_seqnum, last_seqnum].
func (s *Store) Read(startSeqnum uint64, maxCount int) ([]Entry, error) {
	s.fileMu.RLock()
	defer s.fileMu.RUnlock()

	s.dataMu.Lock()
	st := s.st
	s.dataMu.Unlock()

	if startSeqnum == 0 || st.empty() || startSeqnum < st.firstSeqnum || startSeqnum > st.lastSeqnum {
		return nil, newErr(CodeNotFound, nil)
	}

	out := make([]Entry, 0, maxCount)
	for i := 0; i < maxCount; i++ {
		sn := startSeqnum + uint64(i)
		if sn > st.lastSeqnum {
			break
		}
		e, err := s.readOneLocked(st.firstSeqnum, sn)
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
	return out, nil
}

// readOneLocked reads a single entry by seqnum. Callers must already
// hold s.fileMu (shared or exclusive is fine, it only reads).
func (s *Store) readOneLocked(firstSeqnum, sn uint64) (Entry, error) {
	idxBuf := make([]byte, idxRecSize)
	if err := s.idx.readAt(idxBuf, idxOffset(firstSeqnum, sn)); err != nil {
		return Entry{}, newErr(CodeReadIdx, err)
	}
	rec := decodeIdxRecord(idxBuf)

	hdrBuf := make([]byte, dataRecHeaderSize)
	if err := s.dat.readAt(hdrBuf, int64(rec.Offset)); err != nil {
		return Entry{}, newErr(CodeReadDat, err)
	}
	h := decodeDataRecHeader(hdrBuf)

	// Single contiguous allocation backs both metadata and data, the
	// same one-buffer-holds-both-views optimisation the teacher's
	// appendstore2 uses for inline records.
	body := make([]byte, h.MetadataLen+h.DataLen)
	if len(body) > 0 {
		if err := s.dat.readAt(body, int64(rec.Offset)+dataRecHeaderSize); err != nil {
			return Entry{}, newErr(CodeReadDat, err)
		}
	}
	metadata := body[:h.MetadataLen]
	data := body[h.MetadataLen:]

	if dataRecChecksum(h, metadata, data) != h.Checksum {
		return Entry{}, newErr(CodeChecksum, nil)
	}

	return Entry{Seqnum: h.Seqnum, Timestamp: h.Timestamp, Metadata: metadata, Data: data}, nil
}

// Iterate calls fn for every entry in [startSeqnum, last_seqnum], reading
// batchSize entries at a time, stopping early if fn returns false or an
// error occurs.
func (s *Store) Iterate(startSeqnum uint64, batchSize int, fn func(Entry) bool) error {
	if batchSize <= 0 {
		batchSize = 256
	}
	sn := startSeqnum
	s.dataMu.Lock()
	first := s.st.firstSeqnum
	s.dataMu.Unlock()
	if sn < first {
		sn = first
	}
	for {
		batch, err := s.Read(sn, batchSize)
		if err != nil {
			if ie, ok := err.(*Error); ok && ie.Code == CodeNotFound {
				return nil
			}
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		for _, e := range batch {
			if !fn(e) {
				return nil
			}
		}
		sn = batch[len(batch)-1].Seqnum + 1
	}
}

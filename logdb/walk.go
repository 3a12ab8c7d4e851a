package logdb

// walkDataRecords walks contiguous data records starting at pos, which
// must already be the offset of a record boundary. prevSeqnum/prevTimestamp
// describe the record immediately preceding pos, or (0, 0) if pos is the
// very first record's position.
//
// If limit > 0, the walk stops cleanly after validating that many
// records (used to read just the first record). Otherwise it walks until
// end of file or the first invalid/torn record, at which point the data
// file is zeroised from that position.
//
// When fatal is true, an invariant violation (bad checksum, broken
// seqnum sequence, decreasing timestamp) on an otherwise well-sized
// record is a hard error rather than being treated as a torn tail; this
// matches spec §4.5 step 4, used for records already presumed durable.
// A record with seqnum 0 (the zero padding after the last record) ends
// the walk like a torn tail in both modes. When fatal is false, any violation is treated the same as a torn tail:
// the position is zeroised and the walk stops without error, used for
// discovering an uncommitted tail beyond the index.
//
// onRecord, if non-nil, is invoked for every valid record found, in
// order; a non-nil return aborts the walk with that error.
func walkDataRecords(dat *filePair, pos int64, prevSeqnum, prevTimestamp uint64, fileSize int64, fatal bool, limit int, onRecord func(dataRecHeader, int64) *Error) (endOffset int64, lastSeqnum, lastTimestamp uint64, count int, rerr *Error) {
	endOffset = pos
	lastSeqnum = prevSeqnum
	lastTimestamp = prevTimestamp

	for limit <= 0 || count < limit {
		if fileSize-pos < dataRecHeaderSize {
			if err := zeroiseFromOffset(dat, pos); err != nil {
				return endOffset, lastSeqnum, lastTimestamp, count, newErr(CodeWriteDat, err)
			}
			return endOffset, lastSeqnum, lastTimestamp, count, nil
		}

		hdrBuf := make([]byte, dataRecHeaderSize)
		if err := dat.readAt(hdrBuf, pos); err != nil {
			return endOffset, lastSeqnum, lastTimestamp, count, newErr(CodeReadDat, err)
		}
		h := decodeDataRecHeader(hdrBuf)
		size := recSize(h.MetadataLen, h.DataLen)
		if pos+size > fileSize {
			if err := zeroiseFromOffset(dat, pos); err != nil {
				return endOffset, lastSeqnum, lastTimestamp, count, newErr(CodeWriteDat, err)
			}
			return endOffset, lastSeqnum, lastTimestamp, count, nil
		}

		body := make([]byte, h.MetadataLen+h.DataLen)
		if len(body) > 0 {
			if err := dat.readAt(body, pos+dataRecHeaderSize); err != nil {
				return endOffset, lastSeqnum, lastTimestamp, count, newErr(CodeReadDat, err)
			}
		}
		metadata := body[:h.MetadataLen]
		data := body[h.MetadataLen:]

		badChecksum := dataRecChecksum(h, metadata, data) != h.Checksum
		badSeqnum := h.Seqnum == 0 || (lastSeqnum != 0 && h.Seqnum != lastSeqnum+1)
		badTimestamp := lastSeqnum != 0 && h.Timestamp < lastTimestamp

		if badChecksum || badSeqnum || badTimestamp {
			if fatal && h.Seqnum != 0 {
				code := CodeChecksum
				switch {
				case badSeqnum:
					code = CodeSequence
				case badTimestamp:
					code = CodeTimestamp
				}
				return endOffset, lastSeqnum, lastTimestamp, count, newErr(code, nil)
			}
			if err := zeroiseFromOffset(dat, pos); err != nil {
				return endOffset, lastSeqnum, lastTimestamp, count, newErr(CodeWriteDat, err)
			}
			return endOffset, lastSeqnum, lastTimestamp, count, nil
		}

		if onRecord != nil {
			if e := onRecord(h, pos); e != nil {
				return endOffset, lastSeqnum, lastTimestamp, count, e
			}
		}

		lastSeqnum = h.Seqnum
		lastTimestamp = h.Timestamp
		pos += size
		endOffset = pos
		count++
	}
	return endOffset, lastSeqnum, lastTimestamp, count, nil
}

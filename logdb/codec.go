package logdb

import (
	"encoding/binary"
	"errors"
)

const (
	magic         uint64 = 0x211ABF1A62646C00
	formatVersion uint32 = 1

	textBlobLen = 128

	// datHeaderSize is magic(8) + version(4) + pad(4) + text(128) + milestone(8).
	datHeaderSize = 8 + 4 + 4 + textBlobLen + 8
	// idxHeaderSize is magic(8) + version(4) + pad(4) + text(128).
	idxHeaderSize = 8 + 4 + 4 + textBlobLen

	// dataRecHeaderSize is seqnum(8) + timestamp(8) + metadataLen(4) + dataLen(4) + checksum(4).
	dataRecHeaderSize = 8 + 8 + 4 + 4 + 4
	// idxRecSize is seqnum(8) + timestamp(8) + offset(8).
	idxRecSize = 8 + 8 + 8

	datTextBlob = "logdb data file"
	idxTextBlob = "logdb index file"
)

var errShortBuffer = errors.New("logdb: short buffer")

// encodeFileHeader writes a file header (data or index) into buf, which
// must be at least headerSize bytes. milestone is ignored for the index
// header (isIdx == true never writes it; callers pass 0).
func encodeFileHeader(buf []byte, text string, milestone uint64, isIdx bool) {
	binary.LittleEndian.PutUint64(buf[0:8], magic)
	binary.LittleEndian.PutUint32(buf[8:12], formatVersion)
	// buf[12:16] is reserved padding, left zero.
	copy(buf[16:16+textBlobLen], []byte(text))
	if !isIdx {
		binary.LittleEndian.PutUint64(buf[16+textBlobLen:16+textBlobLen+8], milestone)
	}
}

type fileHeader struct {
	Version   uint32
	Text      string
	Milestone uint64 // zero for index headers
}

// decodeFileHeader validates the magic and extracts the rest of a header.
func decodeFileHeader(buf []byte, isIdx bool) (fileHeader, error) {
	want := idxHeaderSize
	if !isIdx {
		want = datHeaderSize
	}
	if len(buf) < want {
		return fileHeader{}, errShortBuffer
	}
	m := binary.LittleEndian.Uint64(buf[0:8])
	if m != magic {
		return fileHeader{}, errBadMagic
	}
	h := fileHeader{
		Version: binary.LittleEndian.Uint32(buf[8:12]),
		Text:    string(buf[16 : 16+textBlobLen]),
	}
	if !isIdx {
		h.Milestone = binary.LittleEndian.Uint64(buf[16+textBlobLen : 16+textBlobLen+8])
	}
	return h, nil
}

var errBadMagic = errors.New("logdb: bad magic number")

var errBadVersion = errors.New("logdb: unsupported format version")

// dataRecHeader is the fixed-size prefix of an on-disk data record.
type dataRecHeader struct {
	Seqnum      uint64
	Timestamp   uint64
	MetadataLen uint32
	DataLen     uint32
	Checksum    uint32
}

func encodeDataRecHeader(buf []byte, h dataRecHeader) {
	binary.LittleEndian.PutUint64(buf[0:8], h.Seqnum)
	binary.LittleEndian.PutUint64(buf[8:16], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[16:20], h.MetadataLen)
	binary.LittleEndian.PutUint32(buf[20:24], h.DataLen)
	binary.LittleEndian.PutUint32(buf[24:28], h.Checksum)
}

func decodeDataRecHeader(buf []byte) dataRecHeader {
	return dataRecHeader{
		Seqnum:      binary.LittleEndian.Uint64(buf[0:8]),
		Timestamp:   binary.LittleEndian.Uint64(buf[8:16]),
		MetadataLen: binary.LittleEndian.Uint32(buf[16:20]),
		DataLen:     binary.LittleEndian.Uint32(buf[20:24]),
		Checksum:    binary.LittleEndian.Uint32(buf[24:28]),
	}
}

// dataRecChecksum computes the checksum covering seqnum, timestamp,
// lengths, metadata bytes, and data bytes, in that order -- the checksum
// field itself is excluded from the covered bytes.
func dataRecChecksum(h dataRecHeader, metadata, data []byte) uint32 {
	var hdr [24]byte
	binary.LittleEndian.PutUint64(hdr[0:8], h.Seqnum)
	binary.LittleEndian.PutUint64(hdr[8:16], h.Timestamp)
	binary.LittleEndian.PutUint32(hdr[16:20], h.MetadataLen)
	binary.LittleEndian.PutUint32(hdr[20:24], h.DataLen)

	crc := crcUpdate(0, hdr[:])
	crc = crcUpdate(crc, metadata)
	crc = crcUpdate(crc, data)
	return crc
}

// recSize returns the total on-disk size of a data record with the given
// metadata/data lengths.
func recSize(metadataLen, dataLen uint32) int64 {
	return dataRecHeaderSize + int64(metadataLen) + int64(dataLen)
}

// idxRecord is the fixed-size on-disk index record.
type idxRecord struct {
	Seqnum    uint64
	Timestamp uint64
	Offset    uint64
}

func encodeIdxRecord(buf []byte, r idxRecord) {
	binary.LittleEndian.PutUint64(buf[0:8], r.Seqnum)
	binary.LittleEndian.PutUint64(buf[8:16], r.Timestamp)
	binary.LittleEndian.PutUint64(buf[16:24], r.Offset)
}

func decodeIdxRecord(buf []byte) idxRecord {
	return idxRecord{
		Seqnum:    binary.LittleEndian.Uint64(buf[0:8]),
		Timestamp: binary.LittleEndian.Uint64(buf[8:16]),
		Offset:    binary.LittleEndian.Uint64(buf[16:24]),
	}
}

// idxOffset returns the byte offset of the index record for seqnum sn,
// given the seqnum of the first record in the store.
func idxOffset(firstSeqnum, sn uint64) int64 {
	return idxHeaderSize + int64(sn-firstSeqnum)*idxRecSize
}

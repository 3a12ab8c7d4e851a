package logdb

import "github.com/klauspost/crc32"

// checksumTable is the AUTODIN-II / zlib polynomial table the on-disk
// format commits to. klauspost/crc32 picks the fastest available
// implementation (SSE4.2/CLMUL, ARM64, or a plain Go slicing-by-8
// fallback) behind the same API as the standard library's hash/crc32,
// while computing the identical IEEE table.
var checksumTable = crc32.MakeTable(crc32.IEEE)

// crcUpdate extends a running checksum with b, so that callers can
// checksum a logical record's header, metadata, and data without first
// concatenating them into one buffer: crc(a||b, seed) = crc(b, crc(a, seed)).
func crcUpdate(crc uint32, b []byte) uint32 {
	return crc32.Update(crc, checksumTable, b)
}

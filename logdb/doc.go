// Package logdb implements an embeddable, append-only, log-structured
// record store for sequentially numbered, timestamp-ordered variable
// length records.
//
// Records are identified by a strictly increasing sequence number and
// carry a monotonically non-decreasing timestamp. A store is a pair of
// files, "<name>.dat" and "<name>.idx", under a caller-supplied
// directory. The store supports append, point read by seqnum, binary
// search by timestamp, range statistics, rollback (trim suffix), purge
// (trim prefix), and an opaque milestone marker.
//
//	s, err := logdb.Open("/var/lib/wal", "segment0", logdb.WithCheck(true))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//
//	n, err := s.Append([]logdb.Entry{{Timestamp: 0, Data: []byte("hello")}})
//
// Exactly one writer goroutine may call Append/Rollback/Purge/
// UpdateMilestone at a time; Read/Search/Stats may run concurrently from
// any number of goroutines, including while a writer is appending.
package logdb

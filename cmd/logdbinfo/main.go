// Command logdbinfo opens a logdb store without the deep validation walk
// and prints its milestone, seqnum range, and full-range statistics. The
// store is opened through logdb.Open, which creates missing files and
// zeroises a torn tail, so it is not a read-only open. It is the diagnostic
// counterpart to the original library's example.c driver: not part of
// the core engine, and written as an ordinary Go CLI rather than a
// bespoke argument parser.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/kjk/logdb/logdb"
	"github.com/kjk/logdb/siser"
)

func main() {
	dir := flag.String("dir", ".", "directory containing the store")
	name := flag.String("name", "", "store name (without .dat/.idx suffix)")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: logdbinfo -dir DIR -name NAME")
		os.Exit(2)
	}

	s, err := logdb.Open(*dir, *name, logdb.WithCheck(false))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open: %s\n", err)
		os.Exit(1)
	}
	defer s.Close()

	rec := &siser.Record{Name: "logdb.stats"}
	rec.Write("dir", *dir)
	rec.Write("name", *name)
	rec.Write("version", logdb.Version())
	rec.Write("milestone", int(s.Milestone()))

	stats, first, last, err := rangeStats(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "stats: %s\n", err)
		os.Exit(1)
	}
	rec.Write("first_seqnum", int(first))
	rec.Write("last_seqnum", int(last))
	rec.Write("num_entries", int(stats.NumEntries))
	rec.Write("data_size", humanize.Bytes(uint64(stats.DataSize)))
	rec.Write("index_size", humanize.Bytes(uint64(stats.IndexSize)))

	w := siser.NewWriter(os.Stdout)
	if _, err := w.WriteRecord(rec); err != nil {
		fmt.Fprintf(os.Stderr, "write: %s\n", err)
		os.Exit(1)
	}
}

func rangeStats(s *logdb.Store) (logdb.Stats, uint64, uint64, error) {
	first, err := s.Search(0, logdb.Lower)
	if err != nil {
		return logdb.Stats{}, 0, 0, nil
	}
	last, err := lastSeqnum(s)
	if err != nil {
		return logdb.Stats{}, first, first, err
	}
	stats, err := s.Stats(first, last)
	return stats, first, last, err
}

// lastSeqnum walks forward in large strides to find the highest seqnum
// the store holds, since Stats/Search need a range rather than a single
// "give me the last one" primitive.
func lastSeqnum(s *logdb.Store) (uint64, error) {
	var last uint64
	err := s.Iterate(1, 4096, func(e logdb.Entry) bool {
		last = e.Seqnum
		return true
	})
	return last, err
}

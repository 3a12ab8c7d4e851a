package logdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

// benchStore mirrors performance.c's synthetic workload generator:
// sequential seqnums, small jittered timestamps, fixed small metadata,
// variable-size payloads. Each benchmark gets its own scratch directory
// (named with a uuid rather than b.TempDir()'s counter, so parallel
// benchmark runs across packages never collide on a shared tmp root).
func benchStore(b *testing.B, opts ...Option) *Store {
	b.Helper()
	dir := filepath.Join(os.TempDir(), "logdb-bench-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { os.RemoveAll(dir) })
	s, err := Open(dir, "bench", opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { s.Close() })
	return s
}

func BenchmarkAppend(b *testing.B) {
	s := benchStore(b)
	data := make([]byte, 256)
	entries := make([]Entry, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		entries[0] = Entry{Data: data}
		if _, err := s.Append(entries); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkAppendBatch(b *testing.B) {
	s := benchStore(b)
	data := make([]byte, 256)
	batch := make([]Entry, 100)
	for i := range batch {
		batch[i] = Entry{Data: data}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range batch {
			batch[j].Seqnum = 0
		}
		if _, err := s.Append(batch); err != nil {
			b.Fatal(err)
		}
	}
}

func benchSeedStore(b *testing.B, n int) *Store {
	b.Helper()
	s := benchStore(b)
	data := make([]byte, 256)
	const chunk = 500
	for i := 0; i < n; i += chunk {
		m := chunk
		if i+m > n {
			m = n - i
		}
		entries := make([]Entry, m)
		for j := range entries {
			entries[j] = Entry{Timestamp: uint64((i+j)/10) + 1, Data: data}
		}
		if _, err := s.Append(entries); err != nil {
			b.Fatal(err)
		}
	}
	return s
}

func BenchmarkRead(b *testing.B) {
	const n = 50000
	s := benchSeedStore(b, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sn := uint64(i%n) + 1
		if _, err := s.Read(sn, 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSearch(b *testing.B) {
	const n = 50000
	s := benchSeedStore(b, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ts := uint64(i % (n / 10))
		if _, err := s.Search(ts, Lower); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkStats(b *testing.B) {
	const n = 50000
	s := benchSeedStore(b, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Stats(1, uint64(n)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRollback(b *testing.B) {
	s := benchStore(b)
	data := make([]byte, 256)
	const batch = 1000
	entries := make([]Entry, batch)
	for i := range entries {
		entries[i] = Entry{Data: data}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		if _, err := s.Append(entries); err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		if _, err := s.Rollback(0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPurge(b *testing.B) {
	s := benchStore(b)
	data := make([]byte, 256)
	const batch = 1000
	entries := make([]Entry, batch)
	for i := range entries {
		entries[i] = Entry{Data: data}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		if _, err := s.Append(entries); err != nil {
			b.Fatal(err)
		}
		threshold := uint64(i*batch+batch) + 1
		b.StartTimer()
		if _, err := s.Purge(threshold); err != nil {
			b.Fatal(err)
		}
	}
}

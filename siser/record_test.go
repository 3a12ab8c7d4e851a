package siser

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/kjk/logdb/internal/assert"
)

var largeValue = ""

func genLargeValue() {
	s := "0123456789"
	s += s // 20
	s += s // 40
	s += s // 80
	s += s // 160
	s += s // 320
	largeValue = s
}

func init() {
	genLargeValue()
}

func TestRecordSerializeSimple(t *testing.T) {
	var r Record

	{
		d := r.Marshal()
		assert.Equal(t, 0, len(d))
	}

	r.Write("key", "val")
	d := r.Marshal()
	assert.Equal(t, "key: val\n", string(d))
}

func TestRecordSerializeSimple2(t *testing.T) {
	var r Record
	r.Write("k2", "a\nb")
	d := r.Marshal()
	assert.Equal(t, "k2:+3\na\nb\n", string(d))
}

func TestRecordSerializeSimple3(t *testing.T) {
	var r Record
	r.Write("long key", largeValue)
	got := string(r.Marshal())
	exp := fmt.Sprintf("long key:+%d\n%s\n", len(largeValue), largeValue)
	assert.Equal(t, exp, got)
}

func testVals(t *testing.T, vals []any, exp string) {
	var r Record
	{
		for i := 0; i < len(vals); i += 2 {
			r.Write(vals[i], vals[i+1])
		}
		got := string(r.Marshal())
		assert.Equal(t, exp, got)
		r.Reset()
	}
	{
		r.Write(vals...)
		got := string(r.Marshal())
		assert.Equal(t, exp, got)
		r.Reset()
	}
}

func TestRecordSerializeSimple4(t *testing.T) {
	vals := []any{"k2", "a\nb", "", "no name", "bu", "gatti ", "no value", "", "bu", "  gatti"}
	exp := `k2:+3
a
b
: no name
bu: gatti{space}
no value:+0
bu:   gatti
`
	// stupid editors remove trailing spaces
	exp = strings.ReplaceAll(exp, "{space}", " ")
	testVals(t, vals, exp)
}

func TestRecordSerializeSimple5(t *testing.T) {
	vals := []any{3, true, false, 88.3, 8, 99}
	exp := `3: true
false: 88.3
8: 99
`
	testVals(t, vals, exp)
}

func TestWriteOddArgCountErrors(t *testing.T) {
	rec := &Record{}
	assert.Error(t, rec.Write("foo"))
}

var rec Record
var globalData []byte

func BenchmarkSiserMarshalWriteMany(b *testing.B) {
	for n := 0; n < b.N; n++ {
		rec.Write("uri", "/atom.xml")
		rec.Write("code", 200)
		rec.Write("ip", "54.186.248.49")
		durMs := float64(1.41) / float64(time.Millisecond)
		durStr := strconv.FormatFloat(durMs, 'f', 2, 64)
		rec.Write("dur", durStr)
		rec.Write("when", time.Now().Format(time.RFC3339))
		rec.Write("size", 35286)
		rec.Write("ua", "Feedspot http://www.feedspot.com")
		rec.Write("referer", "http://blog.kowalczyk.info/feed")
		// assign to global to prevents optimizing the loop
		globalData = rec.Marshal()
	}
}

func BenchmarkSiserMarshalWriteSingle(b *testing.B) {
	for n := 0; n < b.N; n++ {
		durMs := float64(1.41) / float64(time.Millisecond)
		durStr := strconv.FormatFloat(durMs, 'f', 2, 64)
		rec.Write(
			"uri", "/atom.xml",
			"code", 200,
			"ip", "54.186.248.49",
			"dur", durStr,
			"when", time.Now().Format(time.RFC3339),
			"size", 35286,
			"ua", "Feedspot http://www.feedspot.com",
			"referer", "http://blog.kowalczyk.info/feed")
		// assign to global to prevents optimizing the loop
		globalData = rec.Marshal()
	}
}

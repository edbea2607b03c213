package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/bastiangx/lexidx/pkg/lengthindex"
	"github.com/bastiangx/lexidx/pkg/ordered"
	"github.com/bastiangx/lexidx/pkg/twogram"
)

func buildSample() Snapshot {
	prefix := ordered.New()
	suffix := ordered.New()
	for _, w := range []string{"apple", "apply", "banana"} {
		prefix.Insert(w)
		suffix.Insert(reverseForTest(w))
	}
	grams := twogram.New()
	grams.Register("apple", 0)
	grams.Register("apply", 1)
	grams.Register("banana", 2)
	lengths := lengthindex.New()
	lengths.Add(5, 0)
	lengths.Add(5, 1)
	lengths.Add(6, 2)
	return Snapshot{Prefix: prefix, Suffix: suffix, Grams: grams, Lengths: lengths}
}

func reverseForTest(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

func TestWriteReadLTC1RoundTrip(t *testing.T) {
	snap := buildSample()
	var buf bytes.Buffer
	if err := Write(&buf, MagicLTC1, snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	magic, decoded, err := Read(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if magic != MagicLTC1 {
		t.Fatalf("expected LTC1 magic, got %v", magic)
	}
	if decoded.Grams != nil || decoded.Lengths != nil {
		t.Fatal("expected LTC1 decode to omit 2-gram and length indices")
	}
	want := sortedStrings(snap.Prefix.All())
	got := sortedStrings(decoded.Prefix.All())
	if len(want) != len(got) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestWriteReadLTC2RoundTrip(t *testing.T) {
	snap := buildSample()
	var buf bytes.Buffer
	if err := Write(&buf, MagicLTC2, snap); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	magic, decoded, err := Read(&buf)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if magic != MagicLTC2 {
		t.Fatalf("expected LTC2 magic, got %v", magic)
	}
	if !decoded.Grams.Lookup("ap").Contains(0) {
		t.Fatal("expected decoded 2-gram index to retain ap->0")
	}
	if decoded.Lengths.Lookup(6).Contains(2) == false {
		t.Fatal("expected decoded length index to retain bucket 6 -> id 2")
	}
	if !decoded.Prefix.Contains("banana") {
		t.Fatal("expected decoded prefix set to contain banana")
	}
}

func TestReadRejectsUnknownMagic(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("XXXX")
	if _, _, err := Read(&buf); err == nil {
		t.Fatal("expected error for unrecognized magic")
	}
}

func TestReadRejectsTruncatedStream(t *testing.T) {
	snap := buildSample()
	var buf bytes.Buffer
	Write(&buf, MagicLTC2, snap)
	truncated := buf.Bytes()[:len(buf.Bytes())/2]
	if _, _, err := Read(bytes.NewReader(truncated)); err == nil {
		t.Fatal("expected error for truncated stream")
	}
}

func TestIsValidMtimeComparison(t *testing.T) {
	dir := t.TempDir()
	textPath := filepath.Join(dir, "words.txt")
	snapPath := filepath.Join(dir, "words.txt.cache")

	if err := os.WriteFile(textPath, []byte("ID,word,flag\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(snapPath, []byte("LTC1"), 0o644); err != nil {
		t.Fatal(err)
	}

	base := time.Unix(1_700_000_000, 0)
	touchForTest(textPath, base)
	touchForTest(snapPath, base.Add(-time.Hour))
	if IsValid(textPath, snapPath) {
		t.Fatal("expected stale snapshot (older than text file) to be invalid")
	}

	touchForTest(snapPath, base.Add(time.Hour))
	if !IsValid(textPath, snapPath) {
		t.Fatal("expected fresh snapshot (newer than text file) to be valid")
	}
}

func TestIsValidMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if IsValid(filepath.Join(dir, "missing.txt"), filepath.Join(dir, "missing.cache")) {
		t.Fatal("expected missing files to be invalid")
	}
}

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "words.txt.cache")
	snap := buildSample()
	if err := WriteFile(path, MagicLTC2, snap); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	magic, decoded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if magic != MagicLTC2 {
		t.Fatalf("expected LTC2 magic, got %v", magic)
	}
	if !decoded.Prefix.Contains("apple") {
		t.Fatal("expected round-tripped file to retain apple")
	}
}

package sink

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/qrdecode/internal/fountain"
	"github.com/five82/qrdecode/internal/router"
	"github.com/five82/qrdecode/internal/wire"
)

func newCompleteFileState(t *testing.T, name string, content []byte, checksum string) *router.FileState {
	t.Helper()

	dec := fountain.NewDecoder(1)
	if !dec.AddDirectChunk(0, content) {
		t.Fatalf("AddDirectChunk failed")
	}
	if !dec.Complete() {
		t.Fatalf("decoder should be complete after its only chunk")
	}

	md := &wire.FileMetadata{
		FileName:     name,
		FileSize:     int64(len(content)),
		NumChunks:    1,
		FileChecksum: checksum,
	}

	return &router.FileState{
		FileName:    name,
		FileID:      "deadbeef",
		Metadata:    md,
		Decoder:     dec,
		FirstSeenTS: time.Now(),
		LastSeenTS:  time.Now(),
	}
}

func TestSaveWritesVerifiedFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello world")
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	fs := newCompleteFileState(t, "a.txt", content, checksum)
	s := New(dir)

	outcome, err := s.Save(fs)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if outcome.Classification.String() != "verified" {
		t.Fatalf("classification = %v, want verified", outcome.Classification)
	}

	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("saved content = %q, want %q", got, content)
	}

	if _, err := os.Stat(filepath.Join(dir, "a.txt.tmp")); !os.IsNotExist(err) {
		t.Fatalf("temp file should not remain after rename")
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello")
	fs := newCompleteFileState(t, "b.txt", content, "")
	s := New(dir)

	if _, err := s.Save(fs); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	outcome, err := s.Save(fs)
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if !outcome.AlreadySaved {
		t.Fatal("second Save should report AlreadySaved")
	}
}

func TestSaveQuarantinesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello")
	fs := newCompleteFileState(t, "c.txt", content, "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	s := New(dir)

	outcome, err := s.Save(fs)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if outcome.Classification.String() != "corrupt" {
		t.Fatalf("classification = %v, want corrupt", outcome.Classification)
	}
	if _, err := os.Stat(filepath.Join(dir, "c.txt.failed")); err != nil {
		t.Fatalf("expected .failed file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c.txt")); !os.IsNotExist(err) {
		t.Fatal("corrupt file should not be written to the success path")
	}
}

func TestSaveCorruptDoesNotMarkSaved(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello")
	fs := newCompleteFileState(t, "d.txt", content, "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	s := New(dir)

	if _, err := s.Save(fs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s.mu.Lock()
	saved := s.saved[fs.FileName]
	s.mu.Unlock()
	if saved {
		t.Fatal("a corrupt save should not be recorded in the already-saved set")
	}
}

func TestSavePartialWritesDescriptor(t *testing.T) {
	dir := t.TempDir()
	dec := fountain.NewDecoder(4)
	dec.AddDirectChunk(0, []byte("aa"))
	dec.AddDirectChunk(2, []byte("cc"))

	md := &wire.FileMetadata{FileName: "e.txt", FileSize: -1, NumChunks: 4}
	fs := &router.FileState{FileName: "e.txt", Metadata: md, Decoder: dec}

	s := New(dir)
	if err := s.SavePartial(fs); err != nil {
		t.Fatalf("SavePartial: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "e.txt.partial.json"))
	if err != nil {
		t.Fatalf("reading partial descriptor: %v", err)
	}

	var got PartialDescriptor
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RecoveredChunks != 2 || got.NumChunks != 4 {
		t.Fatalf("got recovered=%d total=%d, want 2/4", got.RecoveredChunks, got.NumChunks)
	}
	if len(got.MissingChunks) != 2 {
		t.Fatalf("missing chunks = %v, want 2 entries", got.MissingChunks)
	}
}

package router

import (
	"testing"

	"github.com/five82/qrdecode/internal/wire"
)

func md(name string, numChunks int, fileChecksum string) *wire.FileMetadata {
	return &wire.FileMetadata{
		FileName:     name,
		FileType:     "application/octet-stream",
		FileSize:     int64(numChunks * 8),
		NumChunks:    numChunks,
		ChunkSize:    8,
		FileChecksum: fileChecksum,
	}
}

func directRecord(index int, b byte, n int) wire.DataPacket {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = b
	}
	return wire.DataPacket{
		PacketID:  uint64(index),
		NumChunks: 3,
		Kind:      wire.DataSystematic,
		Records:   []wire.ChunkRecord{{Index: index, Bytes: buf}},
	}
}

// S5: two files with colliding num_chunks, data packets lacking a
// file_id fan out to both; each assembles its own content.
func TestRouteDataFansOutOnChunkCountCollision(t *testing.T) {
	r := New(nil)
	r.RouteMetadata(md("a.bin", 3, ""))
	r.RouteMetadata(md("b.bin", 3, ""))

	for i := 0; i < 3; i++ {
		p := directRecord(i, byte(0x10+i), 3)
		touched := r.RouteData(&p)
		if len(touched) != 2 {
			t.Fatalf("packet_id=%d routed to %d files, want 2", i, len(touched))
		}
	}

	fsA, _ := r.Get("a.bin")
	fsB, _ := r.Get("b.bin")
	if !fsA.Decoder.Complete() {
		t.Error("file a.bin not complete")
	}
	if !fsB.Decoder.Complete() {
		t.Error("file b.bin not complete")
	}
}

func TestRouteDataDirectFileIDMatch(t *testing.T) {
	r := New(nil)
	m := md("only.bin", 2, "deadbeefcafebabe")
	r.RouteMetadata(m)
	fileID := ComputeFileID(m)

	p := wire.DataPacket{
		FileID:    fileID,
		PacketID:  0,
		NumChunks: 2,
		Kind:      wire.DataSystematic,
		Records:   []wire.ChunkRecord{{Index: 0, Bytes: []byte{0x01, 0x02}}},
	}
	touched := r.RouteData(&p)
	if len(touched) != 1 || touched[0].FileName != "only.bin" {
		t.Fatalf("touched = %+v, want [only.bin]", touched)
	}
}

// Invariant 11: an orphan bucket, once created, is not reparented by
// later metadata for the same num_chunks.
func TestOrphanNotReparentedByLaterMetadata(t *testing.T) {
	r := New(nil)

	p := directRecord(0, 0xaa, 3)
	touched := r.RouteData(&p)
	if len(touched) != 1 || !touched[0].Orphan {
		t.Fatalf("expected one orphan FileState, got %+v", touched)
	}
	orphanName := touched[0].FileName
	if orphanName != "unknown_3chunks" {
		t.Errorf("orphan name = %q, want unknown_3chunks", orphanName)
	}

	r.RouteMetadata(md("late.bin", 3, ""))

	p2 := directRecord(1, 0xbb, 3)
	touched2 := r.RouteData(&p2)
	if len(touched2) != 2 {
		t.Fatalf("touched2 = %d files, want 2 (orphan + late.bin)", len(touched2))
	}

	orphan, ok := r.Get(orphanName)
	if !ok {
		t.Fatal("orphan FileState should still exist in table")
	}
	if !orphan.Orphan {
		t.Error("orphan FileState should still be marked Orphan")
	}
}

func TestDuplicatePacketDroppedBeforeDecoder(t *testing.T) {
	r := New(nil)
	r.RouteMetadata(md("f.bin", 3, ""))

	p := directRecord(0, 0x10, 3)
	r.RouteData(&p)
	touched := r.RouteData(&p)
	if len(touched) != 0 {
		t.Fatalf("duplicate packet should not reach the decoder, touched=%v", touched)
	}

	fs, _ := r.Get("f.bin")
	if fs.DuplicateCount != 1 {
		t.Errorf("DuplicateCount = %d, want 1", fs.DuplicateCount)
	}
}

func TestComputeFileIDPrefersFileChecksum(t *testing.T) {
	m := &wire.FileMetadata{FileName: "x.bin", FileChecksum: "ABCDEF0123456789"}
	id := ComputeFileID(m)
	if id != "abcdef01" {
		t.Errorf("ComputeFileID = %q, want abcdef01", id)
	}
}

func TestComputeFileIDFallsBackToFileNameMD5(t *testing.T) {
	m := &wire.FileMetadata{FileName: "x.bin"}
	id := ComputeFileID(m)
	if len(id) != 8 {
		t.Errorf("ComputeFileID = %q, want 8 hex chars", id)
	}
	id2 := ComputeFileID(&wire.FileMetadata{FileName: "x.bin"})
	if id != id2 {
		t.Errorf("ComputeFileID not stable across calls: %q vs %q", id, id2)
	}
}

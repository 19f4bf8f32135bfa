package imagefile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

func TestOpenRawImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	want := bytes.Repeat([]byte{0xAB}, 8192)
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatal(err)
	}

	r, closeFn, err := Open(path, 1<<20)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("raw image content mismatch")
	}
}

func TestOpenZstdImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img.zst")
	want := bytes.Repeat([]byte{0xCD}, 64*1024)

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Write(want); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, closeFn, err := Open(path, 1<<20)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("zstd image content mismatch")
	}

	// The result must be seekable for superblock probing.
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		t.Errorf("seek: %v", err)
	}
}

func TestOpenRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img.zst")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc, _ := zstd.NewWriter(f)
	if _, err := enc.Write(make([]byte, 256*1024)); err != nil {
		t.Fatal(err)
	}
	enc.Close()
	f.Close()

	r, closeFn, err := Open(path, 64*1024)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	got, _ := io.ReadAll(r)
	if len(got) != 64*1024 {
		t.Errorf("inflated %d bytes", len(got))
	}
}

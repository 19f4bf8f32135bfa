// Package imagefile opens raw disk images for identification, unpacking
// zstd- or xz-compressed images transparently. Compressed streams are not
// seekable, so they are inflated into memory up to a caller-provided cap.
package imagefile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Open returns a read-seekable view of the image at path, along with a
// close function. For .zst and .xz images at most limit bytes are
// inflated; raw images are returned as the file itself.
func Open(path string, limit int64) (io.ReadSeeker, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	switch filepath.Ext(path) {
	case ".zst", ".zstd":
		defer f.Close()
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("open zstd stream %s: %w", path, err)
		}
		defer dec.Close()
		return inflate(dec, limit, path)

	case ".xz":
		defer f.Close()
		dec, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		return inflate(dec, limit, path)

	default:
		return f, f.Close, nil
	}
}

func inflate(r io.Reader, limit int64, path string) (io.ReadSeeker, func() error, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit))
	if err != nil {
		return nil, nil, fmt.Errorf("unpack %s: %w", path, err)
	}
	return bytes.NewReader(data), func() error { return nil }, nil
}

package superblock

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"
	"unicode/utf16"

	"github.com/google/uuid"
)

// The images below are assembled byte-for-byte at the documented offsets so
// identification is checked against the on-disk layout, not against our own
// struct definitions.

func blankImage() []byte {
	return make([]byte, PrefixSize)
}

func putUUID(img []byte, off int, s string) {
	id := uuid.MustParse(s)
	copy(img[off:], id[:])
}

func ext4Image(uuidStr, label string) []byte {
	img := blankImage()
	binary.LittleEndian.PutUint16(img[1024+0x38:], 0xEF53)
	putUUID(img, 1024+0x68, uuidStr)
	copy(img[1024+0x78:], label)
	return img
}

func btrfsImage(uuidStr string) []byte {
	img := blankImage()
	copy(img[65536+64:], "_BHRfS_M")
	putUUID(img, 65536+32, uuidStr)
	return img
}

func f2fsImage(uuidStr, label string) []byte {
	img := blankImage()
	binary.LittleEndian.PutUint32(img[1024:], 0xF2F52010)
	putUUID(img, 1024+108, uuidStr)
	for i, u := range utf16.Encode([]rune(label)) {
		binary.LittleEndian.PutUint16(img[1024+124+2*i:], u)
	}
	return img
}

func xfsImage(uuidStr, label string) []byte {
	img := blankImage()
	copy(img[0:], "XFSB")
	putUUID(img, 32, uuidStr)
	copy(img[108:], label)
	return img
}

func fat16Image(volID uint32, label string) []byte {
	img := blankImage()
	img[0x1FE] = 0x55
	img[0x1FF] = 0xAA
	binary.LittleEndian.PutUint16(img[22:], 9) // sectors per FAT
	binary.LittleEndian.PutUint32(img[39:], volID)
	copy(img[43:], "NO NAME    ")
	copy(img[43:], label)
	return img
}

func fat32Image(volID uint32, label string) []byte {
	img := blankImage()
	img[0x1FE] = 0x55
	img[0x1FF] = 0xAA
	// 16-bit FAT length zero, 32-bit length set: the kernel's FAT32 test.
	binary.LittleEndian.PutUint32(img[36:], 1234)
	binary.LittleEndian.PutUint32(img[67:], volID)
	copy(img[71:], "NO NAME    ")
	copy(img[71:], label)
	return img
}

const luks2TestJSON = `{
  "config": {"json_size": "12288", "keyslots_size": "16744448"},
  "keyslots": {
    "0": {
      "type": "luks2",
      "key_size": 64,
      "area": {
        "type": "raw",
        "offset": "32768",
        "size": "258048",
        "encryption": "aes-xts-plain64"
      }
    }
  }
}`

func luks2Image(magic []byte, uuidStr, label string) []byte {
	img := blankImage()
	copy(img[0:], magic)
	binary.BigEndian.PutUint16(img[6:], 2)
	binary.BigEndian.PutUint64(img[8:], 16384) // binary header + 12KiB JSON
	copy(img[24:], label)
	copy(img[168:], uuidStr)
	copy(img[4096:], luks2TestJSON)
	return img
}

func TestIdentificationMatrix(t *testing.T) {
	cases := []struct {
		name  string
		img   []byte
		kind  Kind
		uuid  string
		label string
	}{
		{"btrfs", btrfsImage("829d6a03-96a5-4749-9ea2-dbb6e59368b2"), Btrfs, "829d6a03-96a5-4749-9ea2-dbb6e59368b2", ""},
		{"ext4", ext4Image("731af94c-9990-4eed-944d-5d230dbe8a0d", "testing"), Ext4, "731af94c-9990-4eed-944d-5d230dbe8a0d", "testing"},
		{"f2fs", f2fsImage("d2c85810-4e75-4274-bc7d-a78267af7443", "testing"), F2FS, "d2c85810-4e75-4274-bc7d-a78267af7443", "testing"},
		{"xfs", xfsImage("45e8a3bf-8114-400f-95b0-380d0fb7d42d", "TESTING"), Xfs, "45e8a3bf-8114-400f-95b0-380d0fb7d42d", "TESTING"},
		{"luks2", luks2Image(luks2Magic, "be373cae-2bd1-4ad5-953f-3463b2e53e59", ""), Luks2, "be373cae-2bd1-4ad5-953f-3463b2e53e59", ""},
		{"fat16", fat16Image(0xA1B2C3D4, "TESTLABEL"), Fat, "A1B2-C3D4", "TESTLABEL"},
		{"fat32", fat32Image(0xA1B2C3D4, "TESTLABEL"), Fat, "A1B2-C3D4", "TESTLABEL"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sb, err := FromReader(bytes.NewReader(c.img))
			if err != nil {
				t.Fatalf("identify: %v", err)
			}
			if sb.Kind() != c.kind {
				t.Fatalf("kind = %v want %v", sb.Kind(), c.kind)
			}

			got, err := sb.UUID()
			if err != nil {
				t.Fatalf("uuid: %v", err)
			}
			if got != c.uuid {
				t.Errorf("uuid = %q want %q", got, c.uuid)
			}

			label, err := sb.Label()
			if c.kind == Btrfs {
				if !errors.Is(err, ErrUnsupportedFeature) {
					t.Errorf("btrfs label err = %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("label: %v", err)
			}
			if label != c.label {
				t.Errorf("label = %q want %q", label, c.label)
			}
		})
	}
}

// Bytes outside a format's superblock region must not affect identification.
func TestIdentificationIgnoresOuterBytes(t *testing.T) {
	img := ext4Image("731af94c-9990-4eed-944d-5d230dbe8a0d", "testing")
	for i := 4096; i < len(img); i += 997 {
		img[i] ^= 0xFF
	}
	// Below the superblock too, as long as no other magic appears.
	for i := 0; i < 512; i++ {
		img[i] = 0x7F
	}

	sb, err := FromBytes(img)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if sb.Kind() != Ext4 {
		t.Fatalf("kind = %v", sb.Kind())
	}
	u, _ := sb.UUID()
	if u != "731af94c-9990-4eed-944d-5d230dbe8a0d" {
		t.Errorf("uuid = %q", u)
	}
}

func TestUnknownSuperblock(t *testing.T) {
	if _, err := FromBytes(blankImage()); !errors.Is(err, ErrUnknownSuperblock) {
		t.Fatalf("err = %v", err)
	}
}

func TestShortReaderPropagatesIO(t *testing.T) {
	_, err := FromReader(bytes.NewReader(make([]byte, 4096)))
	if err == nil || errors.Is(err, ErrUnknownSuperblock) {
		t.Fatalf("err = %v, want I/O error", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("err = %v", err)
	}
}

func TestSecondaryLuksMagic(t *testing.T) {
	img := luks2Image(skul2Magic, "be373cae-2bd1-4ad5-953f-3463b2e53e59", "vault")
	sb, err := FromBytes(img)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	if sb.Kind() != Luks2 {
		t.Fatalf("kind = %v", sb.Kind())
	}
	label, _ := sb.Label()
	if label != "vault" {
		t.Errorf("label = %q", label)
	}
}

func TestLuks2ReadConfig(t *testing.T) {
	img := luks2Image(luks2Magic, "be373cae-2bd1-4ad5-953f-3463b2e53e59", "")
	sb, err := FromBytes(img)
	if err != nil {
		t.Fatalf("identify: %v", err)
	}
	hdr, ok := sb.(*Luks2Header)
	if !ok {
		t.Fatalf("superblock type %T", sb)
	}

	cfg, err := hdr.ReadConfig(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if cfg.Config.JSONSize != 12288 {
		t.Errorf("json_size = %d", cfg.Config.JSONSize)
	}
	if cfg.Config.KeyslotsSize == 0 {
		t.Error("keyslots_size = 0")
	}
	slot, ok := cfg.Keyslots["0"]
	if !ok {
		t.Fatal("keyslot 0 missing")
	}
	if slot.Area.Encryption != "aes-xts-plain64" {
		t.Errorf("encryption = %q", slot.Area.Encryption)
	}
}

package sink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-version"
	"github.com/klauspost/compress/gzip"
)

// wisdomFormatVersion is bumped whenever the on-disk layout changes; a
// file tagged with an incompatible version is refused rather than
// misread (spec.md §6 "works correctly with neither").
const wisdomFormatVersion = "1.0.0"

// LoadWisdom reads the gzip-compressed, version-tagged list of FFT sizes
// previously saved by SaveWisdom. A missing file, a version mismatch or
// any read error yields (nil, nil) — the caller simply has no list, as
// spec.md's "works correctly with neither" requires; only an open error
// other than a missing file is returned, for the caller's own logging.
func LoadWisdom(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open wisdom file: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, nil
	}
	defer gz.Close()

	r := bufio.NewReader(gz)

	var verLen uint32
	if err := binary.Read(r, binary.LittleEndian, &verLen); err != nil {
		return nil, nil
	}
	verBytes := make([]byte, verLen)
	if _, err := io.ReadFull(r, verBytes); err != nil {
		return nil, nil
	}

	fileVer, err := version.NewVersion(string(verBytes))
	if err != nil {
		return nil, nil
	}
	wantVer, err := version.NewVersion(wisdomFormatVersion)
	if err != nil {
		return nil, nil
	}
	if fileVer.Core().String() != wantVer.Core().String() {
		return nil, nil
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, nil
	}

	sizes := make([]int, 0, count)
	for i := uint32(0); i < count; i++ {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, nil
		}
		sizes = append(sizes, int(n))
	}
	return sizes, nil
}

// SaveWisdom writes the set of FFT sizes currently in use, gzip-compressed
// and tagged with wisdomFormatVersion.
func SaveWisdom(path string, sizes []int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wisdom file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	defer gz.Close()

	w := bufio.NewWriter(gz)
	defer w.Flush()

	verBytes := []byte(wisdomFormatVersion)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(verBytes))); err != nil {
		return err
	}
	if _, err := w.Write(verBytes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(sizes))); err != nil {
		return err
	}
	for _, n := range sizes {
		if err := binary.Write(w, binary.LittleEndian, uint32(n)); err != nil {
			return err
		}
	}
	return nil
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devblok/korutri/utility/kar"
	"golang.org/x/exp/mmap"
)

func readFileAndCompare(f *kar.Reader, expected string) error {
	result := make([]byte, len(expected))
	n, err := io.ReadFull(f, result)
	if err != nil {
		return err
	}
	if n < len(expected) {
		return errors.New("incorrect number of bytes read")
	}

	if strings.Compare(string(result), expected) != 0 {
		return errors.New("test string does not match up")
	}

	return nil
}

func writeTestArchive(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "opentest.kar")
	if err := os.WriteFile(path, newTestArchive(t), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpen(t *testing.T) {
	r, err := os.Open(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}

	if f, err := ar.Open("test"); err != nil {
		t.Error(err)
	} else if err := readFileAndCompare(f, testString1); err != nil {
		t.Error(err)
	}
}

func TestOpenmmap(t *testing.T) {
	r, err := mmap.Open(writeTestArchive(t))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ar, err := kar.Open(r)
	if err != nil {
		t.Fatal(err)
	}

	if f, err := ar.ReadAll("test2"); err != nil {
		t.Error(err)
	} else if strings.Compare(testString2, string(f)) != 0 {
		t.Error(errors.New("result is not expected value"))
	}
}

// rawArchive lays out an archive by hand so the header
// can claim sizes no Builder would write.
func rawArchive(t *testing.T, headerSize int64, header *kar.Header) []byte {
	var raw bytes.Buffer
	if header != nil {
		if err := gob.NewEncoder(&raw).Encode(header); err != nil {
			t.Fatal(err)
		}
		if headerSize == 0 {
			headerSize = int64(raw.Len())
		}
	}
	length := make([]byte, kar.HeaderSizeNumberLength)
	binary.PutVarint(length, headerSize)

	buf := []byte("KAR\x00")
	buf = append(buf, length...)
	return append(buf, raw.Bytes()...)
}

func TestOpenHeaderTooLarge(t *testing.T) {
	for _, size := range []int64{1 << 62, kar.MaxHeaderSize + 1, -5} {
		_, err := kar.Open(bytes.NewReader(rawArchive(t, size, nil)))
		if !errors.Is(err, kar.ErrFileFormat) {
			t.Errorf("header size %d: expected %v, got %v", size, kar.ErrFileFormat, err)
		}
	}
}

func TestOpenHeaderTruncated(t *testing.T) {
	_, err := kar.Open(bytes.NewReader(rawArchive(t, 4096, nil)))
	if !errors.Is(err, kar.ErrFileFormat) {
		t.Errorf("expected %v, got %v", kar.ErrFileFormat, err)
	}
}

func TestOpenBadIndexEntry(t *testing.T) {
	entries := []kar.IndexEntry{
		{Name: "negative", Size: -1},
		{Name: "huge", Size: 1 << 62},
		{Name: "offset", Offset: -10, Size: 4},
		{Name: "compressed", Size: 4, CompressedSize: -1},
	}
	for _, entry := range entries {
		header := &kar.Header{Author: "test", Index: []kar.IndexEntry{entry}}
		_, err := kar.Open(bytes.NewReader(rawArchive(t, 0, header)))
		if !errors.Is(err, kar.ErrFileFormat) {
			t.Errorf("%s: expected %v, got %v", entry.Name, kar.ErrFileFormat, err)
		}
	}
}

func TestReadAllShortData(t *testing.T) {
	header := &kar.Header{Author: "test", Index: []kar.IndexEntry{
		{Name: "short", Size: 64, CompressedSize: 16},
	}}
	ar, err := kar.Open(bytes.NewReader(rawArchive(t, 0, header)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ar.ReadAll("short"); err == nil {
		t.Error("expected an error reading a file with no data")
	}
}

// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar reads and writes kar archives, the container
// shader blobs ship in. Every file is lz4 compressed on its own and
// the index sits up front, so a memory mapped archive can hand out
// any file without scanning or decompressing the rest. Archives are
// safe for concurrent reads.
//
// Layout: 4 byte magic, the gob encoded Header length as a varint
// padded to 16 bytes, the gob encoded Header, then the compressed files.
// Offsets in the index are relative to the end of the Header.
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a kar archive")
	ErrNotFound   = errors.New("file not found in archive")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

// Upper bounds on sizes read from an archive, anything
// larger is treated as a corrupted file.
const (
	MaxHeaderSize = 1 << 20
	MaxFileSize   = 1 << 28
)

var magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Find returns the index entry of a file.
func (h *Header) Find(name string) (IndexEntry, bool) {
	for _, e := range h.Index {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// validate checks that every index entry describes a readable file.
func (h *Header) validate() error {
	for _, e := range h.Index {
		if e.Offset < 0 || e.CompressedSize < 0 || e.Size < 0 || e.Size > MaxFileSize {
			return fmt.Errorf("%w: bad index entry for %s", ErrFileFormat, e.Name)
		}
	}
	return nil
}

func int64ToBinary(num int64) []byte {
	numBytes := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(numBytes, num)
	return numBytes
}

func binaryToint64(bts []byte) (int64, error) {
	num, err := binary.ReadVarint(bytes.NewReader(bts))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}

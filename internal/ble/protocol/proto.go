// Package protocol implements the protobuf-compatible encoding of temperature
// batches exposed through the batch characteristic.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned when a batch payload ends mid-field.
var ErrTruncated = errors.New("protocol: truncated batch")

// Batch wire layout:
//
//	field 1 (uint32): sequence number
//	field 2 (packed sint32): samples, in insertion order
const (
	tagSeq     = 0x08 // (1 << 3) | 0
	tagSamples = 0x12 // (2 << 3) | 2
)

// MarshalBatch encodes one flushed batch.
func MarshalBatch(seq uint32, samples []int16) []byte {
	var packed []byte
	for _, s := range samples {
		packed = appendVarint(packed, uint64(zigzag(int32(s))))
	}

	buf := make([]byte, 0, 2+binary.MaxVarintLen32+len(packed)+binary.MaxVarintLen32)
	buf = append(buf, tagSeq)
	buf = appendVarint(buf, uint64(seq))
	buf = append(buf, tagSamples)
	buf = appendVarint(buf, uint64(len(packed)))
	buf = append(buf, packed...)
	return buf
}

// UnmarshalBatch decodes a payload produced by MarshalBatch. Unknown varint and
// length-delimited fields are skipped.
func UnmarshalBatch(data []byte) (uint32, []int16, error) {
	var (
		seq     uint32
		samples []int16
	)
	for len(data) > 0 {
		tag, n, err := readVarint(data)
		if err != nil {
			return 0, nil, fmt.Errorf("protocol: reading tag: %w", err)
		}
		data = data[n:]
		fieldNum := uint8(tag >> 3)
		wireType := uint8(tag & 0x07)

		switch wireType {
		case 0: // varint
			val, n, err := readVarint(data)
			if err != nil {
				return 0, nil, fmt.Errorf("protocol: reading varint for field %d: %w", fieldNum, err)
			}
			data = data[n:]
			if fieldNum == 1 {
				seq = uint32(val)
			}
		case 2: // length-delimited
			if len(data) < 1 {
				return 0, nil, ErrTruncated
			}
			length, n, err := readVarint(data)
			if err != nil {
				return 0, nil, fmt.Errorf("protocol: reading length for field %d: %w", fieldNum, err)
			}
			data = data[n:]
			if uint64(len(data)) < length {
				return 0, nil, fmt.Errorf("%w: field %d length %d exceeds remaining %d bytes", ErrTruncated, fieldNum, length, len(data))
			}
			if fieldNum == 2 {
				samples, err = unpackSamples(data[:length])
				if err != nil {
					return 0, nil, err
				}
			}
			data = data[length:]
		default:
			return 0, nil, fmt.Errorf("protocol: unsupported wire type %d for field %d", wireType, fieldNum)
		}
	}
	return seq, samples, nil
}

func unpackSamples(packed []byte) ([]int16, error) {
	samples := make([]int16, 0, len(packed))
	for len(packed) > 0 {
		v, n, err := readVarint(packed)
		if err != nil {
			return nil, fmt.Errorf("protocol: reading sample %d: %w", len(samples), err)
		}
		packed = packed[n:]
		if v > math.MaxUint32 {
			return nil, fmt.Errorf("protocol: sample %d wider than 32 bits: %#x", len(samples), v)
		}
		s := unzigzag(uint32(v))
		if s < -1<<15 || s > 1<<15-1 {
			return nil, fmt.Errorf("protocol: sample %d out of int16 range: %d", len(samples), s)
		}
		samples = append(samples, int16(s))
	}
	return samples, nil
}

func zigzag(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

func unzigzag(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// appendVarint appends a protobuf varint to buf.
func appendVarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// readVarint reads a protobuf varint from data, returning value and bytes consumed.
func readVarint(data []byte) (uint64, int, error) {
	val, n := binary.Uvarint(data)
	if n <= 0 {
		return 0, 0, errors.New("protocol: invalid varint")
	}
	return val, n, nil
}

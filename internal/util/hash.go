// Package util contains internal helpers (value encoding, sharding, padding).
//revive:disable:var-naming  // allow 'util' as an internal helpers package name
package util

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteValue writes a canonical byte encoding of v to w, which is
// typically a hash.Hash64 state. Integers are encoded as their 8
// little-endian bytes regardless of width, so e.g. int32(7) and
// int64(7) feed identical bytes to the hash.
// Supported: string, bool, [16|32|64]byte, all int/uint widths, uintptr,
// fmt.Stringer. For other value types, either convert to string upstream
// or hash with an explicit function.
// Panicking on unsupported types is deliberate to avoid silently poor hashing.
func WriteValue[K comparable](w io.Writer, v K) {
	switch vv := any(v).(type) {
	case string:
		io.WriteString(w, vv)
	case bool:
		if vv {
			writeUint64(w, 1)
		} else {
			writeUint64(w, 0)
		}
	case [16]byte:
		w.Write(vv[:])
	case [32]byte:
		w.Write(vv[:])
	case [64]byte:
		w.Write(vv[:])

	// Integer-like values: 8 little-endian bytes of the widened value.
	case uint8:
		writeUint64(w, uint64(vv))
	case uint16:
		writeUint64(w, uint64(vv))
	case uint32:
		writeUint64(w, uint64(vv))
	case uint64:
		writeUint64(w, vv)
	case uint:
		writeUint64(w, uint64(vv))
	case uintptr:
		writeUint64(w, uint64(vv))
	case int8:
		writeUint64(w, uint64(uint8(vv)))
	case int16:
		writeUint64(w, uint64(uint16(vv)))
	case int32:
		writeUint64(w, uint64(uint32(vv)))
	case int64:
		writeUint64(w, uint64(vv))
	case int:
		writeUint64(w, uint64(vv))

	// Fallback for pseudo-values via String() (avoid if you can).
	case fmt.Stringer:
		io.WriteString(w, vv.String())
	default:
		panic(fmt.Sprintf("util.WriteValue: unsupported value type %T; convert to string or hash with an explicit function", v))
	}
}

// writeUint64 writes the 8 little-endian bytes of u without allocating
// beyond a stack buffer. Hash states never fail their Write, so the
// error is ignored.
func writeUint64(w io.Writer, u uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	w.Write(b[:])
}

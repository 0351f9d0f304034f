// Package endian provides byte order utilities for the pathviz wire format.
//
// The package combines encoding/binary's ByteOrder and AppendByteOrder
// interfaces into a single EndianEngine interface so encoders can use the
// faster append-style operations without juggling two values.
//
// The pathviz wire format is little-endian by contract, so most callers only
// ever need GetLittleEndianEngine:
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint32(buf, count)
//
// All functions are safe for concurrent use; engines are immutable and
// stateless.
package endian

import (
	"encoding/binary"
	"unsafe"
)

// EndianEngine combines ByteOrder and AppendByteOrder from encoding/binary
// into a single interface. It is satisfied by binary.LittleEndian and
// binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. A little-endian host stores the LSB (0x00) first,
	// a big-endian host stores the MSB (0x01) first.
	var i uint16 = 0x0100

	b := (*[2]byte)(unsafe.Pointer(&i))
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host byte order matches the wire
// format's little-endian contract. Decoders use this to enable zero-copy
// float reads on little-endian hosts.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// GetLittleEndianEngine returns the little-endian engine, the wire default.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

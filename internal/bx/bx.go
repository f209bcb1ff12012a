// Package bx holds the little-endian byte helpers shared by the page
// layout and the tuple codec. Every on-disk integer in heapdb is
// little-endian regardless of host order.
package bx

import "encoding/binary"

var LE = binary.LittleEndian

// --- read ---
func U16(b []byte) uint16 { return LE.Uint16(b) }
func U32(b []byte) uint32 { return LE.Uint32(b) }
func I32(b []byte) int32  { return int32(U32(b)) }

// --- write ---
func PutU16(b []byte, v uint16) { LE.PutUint16(b, v) }
func PutU32(b []byte, v uint32) { LE.PutUint32(b, v) }
func PutI32(b []byte, v int32)  { PutU32(b, uint32(v)) }

// --- at offset ---
func U16At(b []byte, off int) uint16       { return U16(b[off:]) }
func PutU16At(b []byte, off int, v uint16) { PutU16(b[off:], v) }

package record

import (
	"fmt"
	"math"

	"github.com/tuannm99/heapdb/internal/bx"
)

// Marshal encodes row into the on-disk tuple format: fields concatenated
// in schema column order with no framing around the whole tuple.
//
//	INT      4 bytes, little-endian, signed
//	TEXT     u16 little-endian length, then the raw bytes
//	BOOLEAN  1 byte, 0 or 1
func Marshal(names []string, attrs []ColumnAttribute, row Row) ([]byte, error) {
	if len(names) != len(attrs) {
		return nil, fmt.Errorf("%w: %d names vs %d attributes", ErrSchemaMismatch, len(names), len(attrs))
	}
	out := make([]byte, 0, 64)
	for i, name := range names {
		value, ok := row[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, name)
		}
		switch attrs[i].Type {
		case Int:
			var b [4]byte
			bx.PutI32(b[:], value.N)
			out = append(out, b[:]...)
		case Text:
			if len(value.S) > math.MaxUint16 {
				return nil, fmt.Errorf("%w: column %q", ErrTextTooLong, name)
			}
			var b [2]byte
			bx.PutU16(b[:], uint16(len(value.S)))
			out = append(out, b[:]...)
			out = append(out, value.S...)
		case Boolean:
			if value.N != 0 {
				out = append(out, 1)
			} else {
				out = append(out, 0)
			}
		default:
			return nil, fmt.Errorf("%w: column %q is %v", ErrUnsupportedType, name, attrs[i].Type)
		}
	}
	return out, nil
}

// Unmarshal decodes the tuple bytes back into a row using the schema to
// drive field widths and type tags.
func Unmarshal(names []string, attrs []ColumnAttribute, data []byte) (Row, error) {
	if len(names) != len(attrs) {
		return nil, fmt.Errorf("%w: %d names vs %d attributes", ErrSchemaMismatch, len(names), len(attrs))
	}
	row := make(Row, len(names))
	off := 0
	for i, name := range names {
		switch attrs[i].Type {
		case Int:
			if off+4 > len(data) {
				return nil, fmt.Errorf("%w: column %q", ErrBadBuffer, name)
			}
			row[name] = IntValue(bx.I32(data[off:]))
			off += 4
		case Text:
			if off+2 > len(data) {
				return nil, fmt.Errorf("%w: column %q", ErrBadBuffer, name)
			}
			size := int(bx.U16(data[off:]))
			off += 2
			if off+size > len(data) {
				return nil, fmt.Errorf("%w: column %q", ErrBadBuffer, name)
			}
			row[name] = TextValue(string(data[off : off+size]))
			off += size
		case Boolean:
			if off+1 > len(data) {
				return nil, fmt.Errorf("%w: column %q", ErrBadBuffer, name)
			}
			row[name] = BoolValue(data[off] != 0)
			off++
		default:
			return nil, fmt.Errorf("%w: column %q is %v", ErrUnsupportedType, name, attrs[i].Type)
		}
	}
	return row, nil
}

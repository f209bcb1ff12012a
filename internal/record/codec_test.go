package record

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testNames = []string{"a", "b", "c"}
	testAttrs = []ColumnAttribute{{Type: Int}, {Type: Text}, {Type: Boolean}}
)

func TestMarshalLayout(t *testing.T) {
	row := Row{
		"a": IntValue(-1),
		"b": TextValue("hi"),
		"c": BoolValue(true),
	}
	data, err := Marshal(testNames, testAttrs, row)
	require.NoError(t, err)

	// 4 bytes int, 2 bytes length + 2 bytes text, 1 byte bool
	require.Equal(t, []byte{
		0xFF, 0xFF, 0xFF, 0xFF,
		0x02, 0x00, 'h', 'i',
		0x01,
	}, data)
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	rows := []Row{
		{"a": IntValue(0), "b": TextValue(""), "c": BoolValue(false)},
		{"a": IntValue(-2147483648), "b": TextValue("x"), "c": BoolValue(true)},
		{"a": IntValue(2147483647), "b": TextValue(strings.Repeat("z", 1000)), "c": BoolValue(false)},
	}
	for _, row := range rows {
		data, err := Marshal(testNames, testAttrs, row)
		require.NoError(t, err)

		got, err := Unmarshal(testNames, testAttrs, data)
		require.NoError(t, err)
		require.Equal(t, row, got)
	}
}

func TestMarshalMissingColumn(t *testing.T) {
	_, err := Marshal(testNames, testAttrs, Row{"a": IntValue(1)})
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestMarshalTextTooLong(t *testing.T) {
	row := Row{
		"a": IntValue(1),
		"b": TextValue(strings.Repeat("x", 65536)),
		"c": BoolValue(false),
	}
	_, err := Marshal(testNames, testAttrs, row)
	require.ErrorIs(t, err, ErrTextTooLong)
}

func TestUnmarshalTruncated(t *testing.T) {
	row := Row{"a": IntValue(7), "b": TextValue("hello"), "c": BoolValue(true)}
	data, err := Marshal(testNames, testAttrs, row)
	require.NoError(t, err)

	for cut := 0; cut < len(data); cut++ {
		_, err := Unmarshal(testNames, testAttrs, data[:cut])
		require.ErrorIs(t, err, ErrBadBuffer, "cut=%d", cut)
	}
}

func TestDataTypeOf(t *testing.T) {
	for name, want := range map[string]DataType{
		"INT":     Int,
		"TEXT":    Text,
		"BOOLEAN": Boolean,
	} {
		dt, err := DataTypeOf(name)
		require.NoError(t, err)
		require.Equal(t, want, dt)
		require.Equal(t, name, dt.String())
	}

	_, err := DataTypeOf("FLOAT")
	require.ErrorIs(t, err, ErrUnsupportedType)
}

func TestValueEqual(t *testing.T) {
	require.True(t, IntValue(3).Equal(IntValue(3)))
	require.False(t, IntValue(3).Equal(IntValue(4)))
	require.False(t, IntValue(1).Equal(BoolValue(true)))
	require.True(t, TextValue("a").Equal(TextValue("a")))
	require.False(t, TextValue("a").Equal(TextValue("b")))
	require.True(t, BoolValue(false).Equal(BoolValue(false)))
}

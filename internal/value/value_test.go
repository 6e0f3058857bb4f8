package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scriptbind/bridge/internal/shared/id"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		native any
		tag    Tag
	}{
		{"nil", nil, TagNull},
		{"true", true, TagBool},
		{"false", false, TagBool},
		{"int64", int64(-42), TagInt64},
		{"int64 max", int64(math.MaxInt64), TagInt64},
		{"double", 3.25, TagDouble},
		{"double zero", 0.0, TagDouble},
		{"string", "hello", TagString},
		{"empty string", "", TagString},
		{"handle", id.Handle(99), TagPointer},
		{"null handle", id.Handle(0), TagPointer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.native)
			require.NoError(t, err)
			assert.Equal(t, tt.tag, encoded.Tag())
			assert.Equal(t, tt.native, Decode(encoded))
		})
	}
}

func TestRoundTripNonFinite(t *testing.T) {
	nan := Decode(NewDouble(math.NaN()))
	require.IsType(t, float64(0), nan)
	assert.True(t, math.IsNaN(nan.(float64)))

	posInf := Decode(NewDouble(math.Inf(1)))
	assert.True(t, math.IsInf(posInf.(float64), 1))

	negInf := Decode(NewDouble(math.Inf(-1)))
	assert.True(t, math.IsInf(negInf.(float64), -1))
}

func TestRoundTripList(t *testing.T) {
	encoded, err := Encode([]any{int64(1), "two", 3.0})
	require.NoError(t, err)
	require.Equal(t, TagList, encoded.Tag())

	decoded := Decode(encoded)
	assert.Equal(t, []any{int64(1), "two", 3.0}, decoded)
}

func TestRoundTripJSON(t *testing.T) {
	encoded, err := NewJSON(map[string]any{"width": 640, "tag": "div"})
	require.NoError(t, err)
	require.Equal(t, TagJSON, encoded.Tag())

	decoded, ok := Decode(encoded).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "div", decoded["tag"])
	assert.EqualValues(t, 640, decoded["width"])

	var typed struct {
		Width int    `json:"width"`
		Tag   string `json:"tag"`
	}
	require.NoError(t, encoded.JSONInto(&typed))
	assert.Equal(t, 640, typed.Width)
}

func TestEncodeStructFallsBackToJSON(t *testing.T) {
	type bounds struct {
		W int `json:"w"`
	}
	encoded, err := Encode(bounds{W: 10})
	require.NoError(t, err)
	assert.Equal(t, TagJSON, encoded.Tag())
}

func TestOwnership(t *testing.T) {
	owned := NewString("abc")
	assert.False(t, owned.Borrowed())

	borrowed := BorrowString("abc")
	assert.True(t, borrowed.Borrowed())
	assert.False(t, borrowed.Retain().Borrowed())

	items := []Value{NewInt64(1), NewInt64(2)}
	view := BorrowList(items)
	kept := view.Retain()
	items[0] = NewInt64(99)
	// The retained copy is detached from the borrowed backing slice.
	assert.Equal(t, int64(1), kept.AsList()[0].AsInt64())
}

func TestPayloadAccessChecksTag(t *testing.T) {
	v := NewInt64(7)
	assert.Panics(t, func() { v.AsString() })
	assert.Panics(t, func() { v.AsBool() })
	assert.Panics(t, func() { NewNull().AsList() })
}

func TestDecodeUnrecognizedTagPanics(t *testing.T) {
	bad := Value{tag: Tag(250)}
	assert.Panics(t, func() { Decode(bad) })
}

// Package value implements the tagged value encoding carried across the
// script/host boundary.
//
// A Value is a (tag, payload) pair in which exactly one payload field is
// meaningful per tag. The tag discriminant is a fixed-width integer so the
// frame layout is identical on both sides of the boundary. Strings and
// lists additionally carry an ownership marker: an owned value transfers
// from producer to consumer exactly once, while a borrowed value is a view
// valid only for the duration of the call that carried it.
package value

import (
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"github.com/scriptbind/bridge/internal/shared/id"
)

// Tag discriminates the payload of a Value. The numeric values are part of
// the boundary protocol and must not be reordered.
type Tag uint32

const (
	TagNull Tag = iota
	TagBool
	TagInt64
	TagDouble
	TagString
	TagPointer
	TagList
	TagJSON
)

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt64:
		return "int64"
	case TagDouble:
		return "double"
	case TagString:
		return "string"
	case TagPointer:
		return "pointer"
	case TagList:
		return "list"
	case TagJSON:
		return "json"
	}
	return fmt.Sprintf("tag(%d)", uint32(t))
}

// Value is a boundary-safe tagged value.
type Value struct {
	tag      Tag
	borrowed bool

	// bits carries bool, int64, double (IEEE bits) and pointer payloads.
	bits uint64
	str  string
	list []Value
}

// NewNull returns the null value.
func NewNull() Value { return Value{tag: TagNull} }

// NewBool returns a boolean value.
func NewBool(b bool) Value {
	var bits uint64
	if b {
		bits = 1
	}
	return Value{tag: TagBool, bits: bits}
}

// NewInt64 returns a 64-bit integer value.
func NewInt64(i int64) Value {
	return Value{tag: TagInt64, bits: uint64(i)}
}

// NewDouble returns a double value. NaN and the infinities are preserved
// bit-exactly.
func NewDouble(f float64) Value {
	return Value{tag: TagDouble, bits: math.Float64bits(f)}
}

// NewString returns an owned string value; ownership transfers to the
// consumer.
func NewString(s string) Value {
	return Value{tag: TagString, str: s}
}

// BorrowString returns a string view valid only for the duration of the
// call that carries it.
func BorrowString(s string) Value {
	return Value{tag: TagString, str: s, borrowed: true}
}

// NewPointer returns a pointer value carrying an opaque registry handle.
func NewPointer(h id.Handle) Value {
	return Value{tag: TagPointer, bits: uint64(h)}
}

// NewList returns an owned list value.
func NewList(items ...Value) Value {
	return Value{tag: TagList, list: items}
}

// BorrowList returns a list view valid only for the carrying call.
func BorrowList(items []Value) Value {
	return Value{tag: TagList, list: items, borrowed: true}
}

// NewJSON marshals v and returns a JSON-tagged value holding the encoded
// document.
func NewJSON(v any) (Value, error) {
	raw, err := sonic.MarshalString(v)
	if err != nil {
		return NewNull(), fmt.Errorf("encode json payload: %w", err)
	}
	return Value{tag: TagJSON, str: raw}, nil
}

// JSONFromString wraps an already-encoded JSON document.
func JSONFromString(raw string) Value {
	return Value{tag: TagJSON, str: raw}
}

// Tag returns the discriminant.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether the value carries the null tag.
func (v Value) IsNull() bool { return v.tag == TagNull }

// Borrowed reports whether the payload is a borrowed view rather than a
// transferred one.
func (v Value) Borrowed() bool { return v.borrowed }

// Retain converts a borrowed value into an owned one the receiver may keep
// beyond the carrying call. Owned values are returned unchanged.
func (v Value) Retain() Value {
	if !v.borrowed {
		return v
	}
	out := v
	out.borrowed = false
	if v.tag == TagList {
		out.list = make([]Value, len(v.list))
		copy(out.list, v.list)
	}
	return out
}

func (v Value) mustBe(t Tag) {
	if v.tag != t {
		panic(fmt.Sprintf("value: %s payload accessed on %s value", t, v.tag))
	}
}

// AsBool returns the boolean payload. Panics on tag mismatch: inspecting a
// payload field inconsistent with the tag is a protocol violation.
func (v Value) AsBool() bool {
	v.mustBe(TagBool)
	return v.bits != 0
}

// AsInt64 returns the integer payload.
func (v Value) AsInt64() int64 {
	v.mustBe(TagInt64)
	return int64(v.bits)
}

// AsDouble returns the double payload.
func (v Value) AsDouble() float64 {
	v.mustBe(TagDouble)
	return math.Float64frombits(v.bits)
}

// AsString returns the string payload.
func (v Value) AsString() string {
	v.mustBe(TagString)
	return v.str
}

// AsPointer returns the handle payload.
func (v Value) AsPointer() id.Handle {
	v.mustBe(TagPointer)
	return id.Handle(v.bits)
}

// AsList returns the list payload. The returned slice is the payload
// itself; respect the ownership marker.
func (v Value) AsList() []Value {
	v.mustBe(TagList)
	return v.list
}

// RawJSON returns the encoded JSON document.
func (v Value) RawJSON() string {
	v.mustBe(TagJSON)
	return v.str
}

// JSONInto unmarshals the JSON payload into dst.
func (v Value) JSONInto(dst any) error {
	v.mustBe(TagJSON)
	if err := sonic.UnmarshalString(v.str, dst); err != nil {
		return fmt.Errorf("decode json payload: %w", err)
	}
	return nil
}

func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagBool:
		return fmt.Sprintf("bool(%t)", v.bits != 0)
	case TagInt64:
		return fmt.Sprintf("int64(%d)", int64(v.bits))
	case TagDouble:
		return fmt.Sprintf("double(%g)", math.Float64frombits(v.bits))
	case TagString:
		return fmt.Sprintf("string(%q)", v.str)
	case TagPointer:
		return fmt.Sprintf("pointer(%d)", v.bits)
	case TagList:
		return fmt.Sprintf("list(%d items)", len(v.list))
	case TagJSON:
		return fmt.Sprintf("json(%s)", v.str)
	}
	return fmt.Sprintf("invalid(%d)", uint32(v.tag))
}

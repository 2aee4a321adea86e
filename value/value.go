// Package value implements Holly's tagged value model and the Function
// State that unifies compile-time scopes and runtime activation records.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cilix/Holly/hashtable"
)

// Kind is the tag of a Value's variant.
type Kind uint8

const (
	KindNil Kind = iota
	KindNumber
	KindBoolean
	KindString
	KindObject
	KindArray
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "Nil"
	case KindNumber:
		return "Number"
	case KindBoolean:
		return "Boolean"
	case KindString:
		return "String"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindFunction:
		return "Function"
	default:
		return "Unknown"
	}
}

// Value is the tagged sum. The tag determines which payload field is
// valid; code that needs a specific tag and finds another raises a
// runtime-type-mismatch error.
type Value struct {
	Kind Kind

	number  float64
	boolean bool
	str     []byte
	obj     *Object
	arr     *Array
	fn      *FuncState
}

// Nil is the singular Nil value.
var Nil = Value{Kind: KindNil}

// Number constructs a Number value.
func Number(n float64) Value { return Value{Kind: KindNumber, number: n} }

// Boolean constructs a Boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBoolean, boolean: b} }

// String constructs a String value. Short and long strings are not
// distinguished in Go's representation (the Go runtime's own garbage
// collector and slice header already give small and large byte slices a
// uniform, reference-counted-by-GC lifetime) — see DESIGN.md for this Open
// Question decision.
func String(b []byte) Value { return Value{Kind: KindString, str: b} }

// StringFromGo constructs a String value from a Go string.
func StringFromGo(s string) Value { return String([]byte(s)) }

// Obj constructs an Object value wrapping o.
func Obj(o *Object) Value { return Value{Kind: KindObject, obj: o} }

// Arr constructs an Array value wrapping a.
func Arr(a *Array) Value { return Value{Kind: KindArray, arr: a} }

// Func constructs a Function value referencing fs.
func Func(fs *FuncState) Value { return Value{Kind: KindFunction, fn: fs} }

// AsNumber returns the Number payload and whether Kind == KindNumber.
func (v Value) AsNumber() (float64, bool) { return v.number, v.Kind == KindNumber }

// AsBoolean returns the Boolean payload and whether Kind == KindBoolean.
func (v Value) AsBoolean() (bool, bool) { return v.boolean, v.Kind == KindBoolean }

// AsString returns the String payload and whether Kind == KindString.
func (v Value) AsString() ([]byte, bool) { return v.str, v.Kind == KindString }

// AsObject returns the Object payload and whether Kind == KindObject.
func (v Value) AsObject() (*Object, bool) { return v.obj, v.Kind == KindObject }

// AsArray returns the Array payload and whether Kind == KindArray.
func (v Value) AsArray() (*Array, bool) { return v.arr, v.Kind == KindArray }

// AsFunction returns the Function payload and whether Kind == KindFunction.
func (v Value) AsFunction() (*FuncState, bool) { return v.fn, v.Kind == KindFunction }

// Truthy implements Holly's falsiness: zero Number and false Boolean are
// falsy, Nil is falsy, every other Value is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNil:
		return false
	case KindNumber:
		return v.number != 0
	case KindBoolean:
		return v.boolean
	default:
		return true
	}
}

// Equal reports whether two values are equal under Holly's == operator:
// same Kind, and same payload (Objects/Arrays/Functions compare by
// reference identity).
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNil:
		return true
	case KindNumber:
		return v.number == o.number
	case KindBoolean:
		return v.boolean == o.boolean
	case KindString:
		return string(v.str) == string(o.str)
	case KindObject:
		return v.obj == o.obj
	case KindArray:
		return v.arr == o.arr
	case KindFunction:
		return v.fn == o.fn
	default:
		return false
	}
}

// String formats a Value the way the LOG opcode does.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindNumber:
		return strconv.FormatFloat(v.number, 'g', -1, 64)
	case KindBoolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindString:
		return string(v.str)
	case KindObject:
		return v.obj.String()
	case KindArray:
		return v.arr.String()
	case KindFunction:
		return fmt.Sprintf("<function %s>", v.fn.Name)
	default:
		return "<invalid>"
	}
}

// Object is a mapping from byte-string keys to Values.
type Object struct {
	fields *hashtable.Table[Value]
	// order preserves insertion order for deterministic String()/iteration,
	// mirroring how a language host would print object literals back out.
	order [][]byte
}

// NewObject allocates an empty Object.
func NewObject() *Object {
	return &Object{fields: hashtable.Create[Value]()}
}

// Get looks up a field by name.
func (o *Object) Get(name []byte) (Value, bool) {
	return o.fields.Get(name)
}

// Set inserts or overwrites a field.
func (o *Object) Set(name []byte, v Value) {
	if _, existed := o.fields.Get(name); !existed {
		o.order = append(o.order, append([]byte(nil), name...))
	}
	o.fields.Set(name, v)
}

// Delete removes a field.
func (o *Object) Delete(name []byte) bool {
	return o.fields.Del(name)
}

// Len returns the number of fields.
func (o *Object) Len() int { return o.fields.Len() }

func (o *Object) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, name := range o.order {
		if _, ok := o.fields.Get(name); !ok {
			continue // deleted
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		v, _ := o.fields.Get(name)
		sb.WriteString(string(name))
		sb.WriteString(": ")
		sb.WriteString(v.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// Array is an ordered, length-known sequence of Values.
type Array struct {
	Items []Value
}

// NewArray allocates an Array from items.
func NewArray(items []Value) *Array {
	return &Array{Items: items}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.Items) }

func (a *Array) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range a.Items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

package meta

import (
	"errors"
	"fmt"
	"io"
	"math"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON encodes v, keeping map key order.
func (v Value) MarshalJSON() ([]byte, error) {
	stream := json.BorrowStream(nil)
	defer json.ReturnStream(stream)

	writeValue(stream, v)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON decodes any JSON document into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	out := readValue(iter)
	if iter.Error != nil && !errors.Is(iter.Error, io.EOF) {
		return fmt.Errorf("meta: %w", iter.Error)
	}
	*v = out
	return nil
}

// MarshalJSON encodes m as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return Object(m).MarshalJSON()
}

// UnmarshalJSON decodes a JSON object into m, keeping document key order.
func (m *Map) UnmarshalJSON(data []byte) error {
	var v Value
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	if v.IsNull() {
		*m = Map{vals: make(map[string]Value)}
		return nil
	}
	decoded, ok := v.AsMap()
	if !ok {
		return fmt.Errorf("meta: expected object, got %s", v.Kind())
	}
	*m = *decoded
	return nil
}

func writeValue(stream *jsoniter.Stream, v Value) {
	switch v.kind {
	case KindNull:
		stream.WriteNil()
	case KindBool:
		stream.WriteBool(v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			stream.Error = fmt.Errorf("meta: non-finite number %v", v.n)
			return
		}
		stream.WriteFloat64(v.n)
	case KindString:
		stream.WriteString(v.s)
	case KindList:
		stream.WriteArrayStart()
		for i, item := range v.list {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item)
		}
		stream.WriteArrayEnd()
	case KindMap:
		stream.WriteObjectStart()
		for i, k := range v.m.Keys() {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(k)
			item, _ := v.m.Get(k)
			writeValue(stream, item)
		}
		stream.WriteObjectEnd()
	}
}

func readValue(iter *jsoniter.Iterator) Value {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.NumberValue:
		return Number(iter.ReadFloat64())
	case jsoniter.StringValue:
		return String(iter.ReadString())
	case jsoniter.ArrayValue:
		items := []Value{}
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			items = append(items, readValue(it))
			return it.Error == nil
		})
		return List(items...)
	case jsoniter.ObjectValue:
		m := NewMap()
		iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			m.Set(key, readValue(it))
			return it.Error == nil
		})
		return Object(m)
	default:
		iter.ReportError("meta.readValue", "unexpected token")
		return Null()
	}
}

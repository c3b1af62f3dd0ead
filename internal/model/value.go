package model

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "null"
	}
}

// Value is a single cell of an instrument row.
type Value struct {
	Kind Kind
	Num  float64
	Text string
	Bool bool
}

func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

func Text(s string) Value { return Value{Kind: KindText, Text: s} }

func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

func Null() Value { return Value{} }

// ValueOf converts a scalar decoded from a provider JSON payload.
// Nested objects and arrays are not scalars and are reported as an error.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

// Compare orders two values of the same kind. Nulls sort after everything else.
func (v Value) Compare(other Value) int {
	if v.IsNull() || other.IsNull() {
		switch {
		case v.IsNull() && other.IsNull():
			return 0
		case v.IsNull():
			return 1
		default:
			return -1
		}
	}

	if v.Kind != other.Kind {
		return cmp.Compare(v.Kind, other.Kind)
	}

	switch v.Kind {
	case KindNumber:
		return cmp.Compare(v.Num, other.Num)
	case KindText:
		return strings.Compare(v.Text, other.Text)
	case KindBool:
		switch {
		case v.Bool == other.Bool:
			return 0
		case !v.Bool:
			return -1
		default:
			return 1
		}
	default:
		return 0
	}
}

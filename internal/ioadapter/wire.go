// Package ioadapter defines the typed-column producer/consumer surface
// fixture loading and oracle normalization read and write through,
// generalized from internal/dialect's Parser/Generator interface pair
// (one interface per direction, a single in-memory/file adapter
// implementing both) into ColumnSource/ColumnSink over the wire
// encoding spec §6 names: columns as (dtype_tag, sequence<scalar>),
// indexes as a sequence of {"int64": n} / {"utf8": s} records.
package ioadapter

import (
	"fmt"

	"tabula/internal/column"
	"tabula/internal/index"
	"tabula/internal/typesys"
)

// WireScalar is one cell of a wire-encoded column: either a typed
// value or a {"null": kind} marker. Exactly one field is populated.
type WireScalar struct {
	Null    string   `json:"null,omitempty"`
	Int64   *int64   `json:"int64,omitempty"`
	Float64 *float64 `json:"float64,omitempty"`
	Bool    *bool    `json:"bool,omitempty"`
	Utf8    *string  `json:"utf8,omitempty"`
}

// WireColumn is a dtype-tagged sequence of WireScalar, the exact shape
// spec §6 names for both fixture inputs/expected and oracle output.
type WireColumn struct {
	DType  string       `json:"dtype"`
	Values []WireScalar `json:"values"`
}

// WireLabel is one wire-encoded index label.
type WireLabel struct {
	Int64 *int64  `json:"int64,omitempty"`
	Utf8  *string `json:"utf8,omitempty"`
}

func dtypeFromWire(tag string) (typesys.DType, error) {
	switch tag {
	case "int64":
		return typesys.Int64, nil
	case "float64":
		return typesys.Float64, nil
	case "bool":
		return typesys.Bool, nil
	case "utf8":
		return typesys.Utf8, nil
	default:
		return 0, fmt.Errorf("ioadapter: unrecognized dtype tag %q", tag)
	}
}

func dtypeToWire(d typesys.DType) string {
	switch d {
	case typesys.Int64:
		return "int64"
	case typesys.Float64:
		return "float64"
	case typesys.Bool:
		return "bool"
	default:
		return "utf8"
	}
}

// DecodeScalar converts one WireScalar into a typesys.Scalar of dtype.
func DecodeScalar(w WireScalar, dtype typesys.DType) (typesys.Scalar, error) {
	if w.Null != "" {
		kind := typesys.KindNull
		if w.Null == "nan" {
			kind = typesys.KindNaN
		}
		return typesys.NullScalar(dtype, kind), nil
	}
	switch dtype {
	case typesys.Int64:
		if w.Int64 == nil {
			return typesys.Scalar{}, fmt.Errorf("ioadapter: expected int64 scalar")
		}
		return typesys.Int64Scalar(*w.Int64), nil
	case typesys.Float64:
		if w.Float64 == nil {
			return typesys.Scalar{}, fmt.Errorf("ioadapter: expected float64 scalar")
		}
		return typesys.Float64Scalar(*w.Float64), nil
	case typesys.Bool:
		if w.Bool == nil {
			return typesys.Scalar{}, fmt.Errorf("ioadapter: expected bool scalar")
		}
		return typesys.BoolScalar(*w.Bool), nil
	case typesys.Utf8:
		if w.Utf8 == nil {
			return typesys.Scalar{}, fmt.Errorf("ioadapter: expected utf8 scalar")
		}
		return typesys.Utf8Scalar(*w.Utf8), nil
	default:
		return typesys.Scalar{}, fmt.Errorf("ioadapter: unsupported dtype %v", dtype)
	}
}

// EncodeScalar converts a typesys.Scalar into its wire representation.
func EncodeScalar(s typesys.Scalar) WireScalar {
	if s.IsMissing() {
		kind := "null"
		if s.NullKind() == typesys.KindNaN {
			kind = "nan"
		}
		return WireScalar{Null: kind}
	}
	switch s.DType() {
	case typesys.Int64:
		v, _ := s.Int64()
		return WireScalar{Int64: &v}
	case typesys.Float64:
		v, _ := s.Float64()
		return WireScalar{Float64: &v}
	case typesys.Bool:
		v, _ := s.Bool()
		return WireScalar{Bool: &v}
	default:
		v, _ := s.Utf8()
		return WireScalar{Utf8: &v}
	}
}

// DecodeColumn builds a column.Column from a WireColumn.
func DecodeColumn(w WireColumn) (column.Column, error) {
	dtype, err := dtypeFromWire(w.DType)
	if err != nil {
		return column.Column{}, err
	}
	b := column.NewBuilder(dtype, len(w.Values))
	for _, cell := range w.Values {
		s, derr := DecodeScalar(cell, dtype)
		if derr != nil {
			return column.Column{}, derr
		}
		if perr := b.Push(s); perr != nil {
			return column.Column{}, perr
		}
	}
	return b.Build(), nil
}

// EncodeColumn converts a column.Column into its wire representation.
func EncodeColumn(c column.Column) WireColumn {
	values := make([]WireScalar, c.Len())
	for i := range values {
		values[i] = EncodeScalar(c.At(i))
	}
	return WireColumn{DType: dtypeToWire(c.DType()), Values: values}
}

// DecodeIndex builds an *index.Index from a sequence of WireLabel.
func DecodeIndex(labels []WireLabel) (*index.Index, error) {
	out := make([]index.Label, len(labels))
	for i, l := range labels {
		switch {
		case l.Int64 != nil:
			out[i] = index.NewInt64Label(*l.Int64)
		case l.Utf8 != nil:
			out[i] = index.NewUtf8Label(*l.Utf8)
		default:
			return nil, fmt.Errorf("ioadapter: empty wire label at position %d", i)
		}
	}
	return index.New(out)
}

// EncodeIndex converts an *index.Index into its wire representation.
func EncodeIndex(idx *index.Index) []WireLabel {
	labels := idx.Labels()
	out := make([]WireLabel, len(labels))
	for i, l := range labels {
		if l.Kind == index.Int64Kind {
			v := l.I
			out[i] = WireLabel{Int64: &v}
		} else {
			s := l.S
			out[i] = WireLabel{Utf8: &s}
		}
	}
	return out
}

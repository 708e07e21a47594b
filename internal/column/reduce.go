package column

import "tabula/internal/typesys"

// NanSum reduces c via typesys.NanSumInt64/NanSumFloat64 depending on
// dtype. Non-numeric dtypes return a TypeMismatchError.
func (c Column) NanSum() (typesys.Scalar, error) {
	switch c.dtype {
	case typesys.Int64:
		return typesys.NanSumInt64(c.ints, c.validity.ToBoolSlice()), nil
	case typesys.Float64:
		return typesys.NanSumFloat64(c.floats, c.validity.ToBoolSlice()), nil
	default:
		return typesys.Scalar{}, &UnsupportedOpError{Op: "NanSum", DType: c.dtype}
	}
}

// NanCount is never null.
func (c Column) NanCount() int64 { return c.validity.CountValid() }

// NanMean always promotes to Float64.
func (c Column) NanMean() (typesys.Scalar, error) {
	sum, err := c.NanSum()
	if err != nil {
		return typesys.Scalar{}, err
	}
	f, ok := sum.Float64()
	if !ok {
		if i, iok := sum.Int64(); iok {
			f = float64(i)
		} else {
			return typesys.NullScalar(typesys.Float64, typesys.KindNaN), nil
		}
	}
	return typesys.NanMean(f, c.NanCount()), nil
}

// NanMin/NanMax reduce via typesys's paired min/max helpers.
func (c Column) NanMin() (typesys.Scalar, error) {
	lo, _, err := c.nanMinMax()
	return lo, err
}

func (c Column) NanMax() (typesys.Scalar, error) {
	_, hi, err := c.nanMinMax()
	return hi, err
}

func (c Column) nanMinMax() (typesys.Scalar, typesys.Scalar, error) {
	switch c.dtype {
	case typesys.Int64:
		lo, hi := typesys.NanMinMaxInt64(c.ints, c.validity.ToBoolSlice())
		return lo, hi, nil
	case typesys.Float64:
		lo, hi := typesys.NanMinMaxFloat64(c.floats, c.validity.ToBoolSlice())
		return lo, hi, nil
	default:
		return typesys.Scalar{}, typesys.Scalar{}, &UnsupportedOpError{Op: "NanMinMax", DType: c.dtype}
	}
}

// NanVar/NanStd require a Float64-coercible numeric column.
func (c Column) NanVar(ddof int) (typesys.Scalar, error) {
	floats, ok := c.asFloatSlice()
	if !ok {
		return typesys.Scalar{}, &UnsupportedOpError{Op: "NanVar", DType: c.dtype}
	}
	return typesys.NanVar(floats, c.validity.ToBoolSlice(), ddof), nil
}

func (c Column) NanStd(ddof int) (typesys.Scalar, error) {
	floats, ok := c.asFloatSlice()
	if !ok {
		return typesys.Scalar{}, &UnsupportedOpError{Op: "NanStd", DType: c.dtype}
	}
	return typesys.NanStd(floats, c.validity.ToBoolSlice(), ddof), nil
}

// NanMedian requires a Float64-coercible numeric column.
func (c Column) NanMedian() (typesys.Scalar, error) {
	floats, ok := c.asFloatSlice()
	if !ok {
		return typesys.Scalar{}, &UnsupportedOpError{Op: "NanMedian", DType: c.dtype}
	}
	return typesys.NanMedian(floats, c.validity.ToBoolSlice()), nil
}

func (c Column) asFloatSlice() ([]float64, bool) {
	switch c.dtype {
	case typesys.Float64:
		return c.floats, true
	case typesys.Int64:
		out := make([]float64, len(c.ints))
		for i, v := range c.ints {
			out[i] = float64(v)
		}
		return out, true
	default:
		return nil, false
	}
}

// First returns the first non-missing value, skip-null.
func (c Column) First() typesys.Scalar {
	for i := 0; i < c.Len(); i++ {
		if c.validity.IsValid(i) {
			return c.At(i)
		}
	}
	return typesys.NullScalar(c.dtype, nanKindFor(c.dtype))
}

// Last returns the last non-missing value, skip-null.
func (c Column) Last() typesys.Scalar {
	for i := c.Len() - 1; i >= 0; i-- {
		if c.validity.IsValid(i) {
			return c.At(i)
		}
	}
	return typesys.NullScalar(c.dtype, nanKindFor(c.dtype))
}

func nanKindFor(d typesys.DType) typesys.NullKind {
	if d == typesys.Float64 {
		return typesys.KindNaN
	}
	return typesys.KindNull
}

package column

import "tabula/internal/typesys"

// FilterByMask keeps the rows where mask is true-and-valid. mask must be
// a Bool Column of equal length.
func (c Column) FilterByMask(mask Column) (Column, error) {
	if mask.Len() != c.Len() {
		return Column{}, &LengthMismatchError{Left: c.Len(), Right: mask.Len()}
	}
	if mask.dtype != typesys.Bool {
		return Column{}, &InvalidMaskError{MaskDType: mask.dtype}
	}
	positions := make([]*int, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if mask.validity.IsValid(i) && mask.bools[i] {
			pos := i
			positions = append(positions, &pos)
		}
	}
	return c.ReindexByPositions(positions), nil
}

// ReindexByPositions builds a new Column by gathering rows at the given
// positions; a nil entry produces a missing cell at that output row.
func (c Column) ReindexByPositions(positions []*int) Column {
	n := len(positions)
	b := NewBuilder(c.dtype, n)
	for _, p := range positions {
		if p == nil {
			_ = b.Push(typesys.NullScalar(c.dtype, typesys.KindNull))
			continue
		}
		_ = b.Push(c.At(*p))
	}
	return b.Build()
}

// ReindexByOptionalPositions is the OutOfBounds-checked variant of
// ReindexByPositions, returning an error instead of panicking when a
// position falls outside [0, c.Len()).
func (c Column) ReindexByOptionalPositions(positions []*int) (Column, error) {
	for _, p := range positions {
		if p != nil && (*p < 0 || *p >= c.Len()) {
			return Column{}, &OutOfBoundsError{Position: *p, Len: c.Len()}
		}
	}
	return c.ReindexByPositions(positions), nil
}

// FillNA replaces every missing cell with fill, which must be castable
// into c's dtype. Length and dtype are preserved.
func (c Column) FillNA(fill typesys.Scalar) (Column, error) {
	castFill, err := fill.Cast(c.dtype)
	if err != nil {
		return Column{}, &TypeMismatchError{Have: fill.DType(), Want: c.dtype}
	}
	if castFill.IsMissing() {
		// Filling with a null is a no-op on missingness but still a
		// valid operation (e.g. fillna(Null) is legal and idempotent).
		return c, nil
	}
	n := c.Len()
	b := NewBuilder(c.dtype, n)
	for i := 0; i < n; i++ {
		if c.validity.IsValid(i) {
			_ = b.Push(c.At(i))
		} else {
			_ = b.Push(castFill)
		}
	}
	return b.Build(), nil
}

// DropNA returns a new Column with every missing row removed.
func (c Column) DropNA() Column {
	n := c.Len()
	positions := make([]*int, 0, n)
	for i := 0; i < n; i++ {
		if c.validity.IsValid(i) {
			p := i
			positions = append(positions, &p)
		}
	}
	return c.ReindexByPositions(positions)
}

// CountMissing is a convenience wrapper over Validity().CountInvalid().
func (c Column) CountMissing() int64 { return c.validity.CountInvalid() }

// Concat appends the rows of cols in order. All inputs must share one
// dtype, except that Null-dtype (all-missing) inputs join with any
// dtype; no numeric promotion is performed.
func Concat(cols ...Column) (Column, error) {
	if len(cols) == 0 {
		return Column{}, nil
	}
	dtype := typesys.Null
	for _, c := range cols {
		if c.dtype != typesys.Null {
			dtype = c.dtype
			break
		}
	}
	total := 0
	for _, c := range cols {
		if c.dtype != dtype && c.dtype != typesys.Null {
			return Column{}, &TypeMismatchError{Have: c.dtype, Want: dtype}
		}
		total += c.Len()
	}
	b := NewBuilder(dtype, total)
	for _, c := range cols {
		for i := 0; i < c.Len(); i++ {
			_ = b.Push(c.At(i))
		}
	}
	return b.Build(), nil
}

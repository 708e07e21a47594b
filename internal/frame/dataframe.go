package frame

import (
	"tabula/internal/column"
	"tabula/internal/index"
	"tabula/internal/typesys"
)

// DataFrame pairs an Index with a column-name-keyed mapping of equal-
// length Columns. Column iteration order is insertion-preserving (the
// open question in spec §9 resolved in favor of (a): an ordered map,
// matching the teacher's Table.Columns []*Column convention of
// iterating columns in the order they were added rather than a
// name-sorted order).
type DataFrame struct {
	Index   *index.Index
	columns map[string]column.Column
	order   []string
}

// NewDataFrame builds an empty DataFrame over idx.
func NewDataFrame(idx *index.Index) *DataFrame {
	return &DataFrame{Index: idx, columns: make(map[string]column.Column)}
}

// WithColumn returns a new DataFrame with name bound to col, appended to
// the column order if new, or replaced in place if name already exists.
// col's length must equal the frame's index length.
func (df *DataFrame) WithColumn(name string, col column.Column) (*DataFrame, error) {
	if col.Len() != df.Index.Len() {
		return nil, newError(LengthMismatch, "column %q length %d != index length %d", name, col.Len(), df.Index.Len())
	}
	out := df.clone()
	if _, exists := out.columns[name]; !exists {
		out.order = append(out.order, name)
	}
	out.columns[name] = col
	return out, nil
}

func (df *DataFrame) clone() *DataFrame {
	cols := make(map[string]column.Column, len(df.columns))
	for k, v := range df.columns {
		cols[k] = v
	}
	return &DataFrame{Index: df.Index, columns: cols, order: append([]string(nil), df.order...)}
}

// Column returns the named column and whether it exists.
func (df *DataFrame) Column(name string) (column.Column, bool) {
	c, ok := df.columns[name]
	return c, ok
}

// ColumnNames returns the deterministic, insertion-preserving column
// name order.
func (df *DataFrame) ColumnNames() []string { return append([]string(nil), df.order...) }

// Len returns the row count (the frame's index length).
func (df *DataFrame) Len() int { return df.Index.Len() }

// FromSeries folds align_union across series_list to a single union
// index, then reindexes every column to it. Output column order follows
// the order series appear in series_list.
func FromSeries(seriesList []Series) (*DataFrame, error) {
	if len(seriesList) == 0 {
		idx, _ := index.New(nil)
		return NewDataFrame(idx), nil
	}
	union := seriesList[0].Index
	for _, s := range seriesList[1:] {
		plan := index.AlignUnion(union, s.Index)
		var err error
		union, err = index.New(plan.UnionLabels)
		if err != nil {
			return nil, wrapIndexErr(err)
		}
	}

	df := NewDataFrame(union)
	for _, s := range seriesList {
		// union was folded to already contain every label from s.Index;
		// reindex s's column against the now-fixed union order.
		reindexed, err := s.Col.ReindexByOptionalPositions(alignToFixedUnion(union, s.Index))
		if err != nil {
			return nil, wrapColumnErr(err)
		}
		df, err = df.WithColumn(s.Name, reindexed)
		if err != nil {
			return nil, err
		}
	}
	return df, nil
}

// alignToFixedUnion returns, for each label of union in order, the
// position of that label in src (nil if absent) — used when the union
// index is already fixed and we only need one side's position vector.
func alignToFixedUnion(union, src *index.Index) []*int {
	out := make([]*int, union.Len())
	for i := 0; i < union.Len(); i++ {
		out[i] = src.Position(union.At(i))
	}
	return out
}

// ConcatSeries concatenates indexes verbatim (duplicates preserved) and
// concatenates column values.
func ConcatSeries(series ...Series) (Series, error) {
	if len(series) == 0 {
		return Series{}, newError(LengthMismatch, "concat requires at least one series")
	}
	var labels []index.Label
	cols := make([]column.Column, len(series))
	for i, s := range series {
		labels = append(labels, s.Index.Labels()...)
		cols[i] = s.Col
	}
	idx, err := index.New(labels)
	if err != nil {
		return Series{}, wrapIndexErr(err)
	}
	outCol, err := column.Concat(cols...)
	if err != nil {
		return Series{}, wrapColumnErr(err)
	}
	return Series{Name: series[0].Name, Index: idx, Col: outCol}, nil
}

// ConcatDataFrames concatenates indexes verbatim and unions the column
// set; columns missing from a given input frame are Null-filled for
// that frame's rows.
func ConcatDataFrames(frames ...*DataFrame) (*DataFrame, error) {
	if len(frames) == 0 {
		idx, _ := index.New(nil)
		return NewDataFrame(idx), nil
	}

	var labels []index.Label
	for _, f := range frames {
		labels = append(labels, f.Index.Labels()...)
	}
	idx, err := index.New(labels)
	if err != nil {
		return nil, wrapIndexErr(err)
	}

	var names []string
	seen := make(map[string]struct{})
	for _, f := range frames {
		for _, n := range f.order {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				names = append(names, n)
			}
		}
	}

	out := NewDataFrame(idx)
	for _, name := range names {
		var pieces []column.Column
		for _, f := range frames {
			if c, ok := f.columns[name]; ok {
				pieces = append(pieces, c)
				continue
			}
			pieces = append(pieces, nullColumnLike(f.Len()))
		}
		combined, cerr := column.Concat(pieces...)
		if cerr != nil {
			return nil, wrapColumnErr(cerr)
		}
		var werr error
		out, werr = out.WithColumn(name, combined)
		if werr != nil {
			return nil, werr
		}
	}
	return out, nil
}

// nullColumnLike builds an all-missing Null-dtype column of length n;
// Column.Concat treats Null as joinable with any other dtype.
func nullColumnLike(n int) column.Column {
	b := column.NewBuilder(typesys.Null, n)
	for i := 0; i < n; i++ {
		_ = b.Push(typesys.NullScalar(typesys.Null, typesys.KindNull))
	}
	return b.Build()
}

// FilterRows aligns mask's index to df's index and keeps rows where the
// mask is true-and-valid.
func (df *DataFrame) FilterRows(mask Series) (*DataFrame, error) {
	positions := alignToFixedUnion(df.Index, mask.Index)
	alignedMask := mask.Col.ReindexByPositions(positions)

	var keep []int
	for i := 0; i < alignedMask.Len(); i++ {
		if alignedMask.Validity().IsValid(i) {
			v, _ := alignedMask.At(i).Bool()
			if v {
				keep = append(keep, i)
			}
		}
	}
	newIdx := df.Index.Take(keep)
	out := NewDataFrame(newIdx)
	for _, name := range df.order {
		c := df.columns[name]
		ptrs := make([]*int, len(keep))
		for i, p := range keep {
			v := p
			ptrs[i] = &v
		}
		filtered := c.ReindexByPositions(ptrs)
		var err error
		out, err = out.WithColumn(name, filtered)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Head returns the first n rows. Negative n drops the last |n| rows
// instead (head(-k)), saturating to an empty frame.
func (df *DataFrame) Head(n int) *DataFrame {
	start, end := headRange(df.Len(), n)
	return df.sliceRows(start, end)
}

// Tail returns the last n rows. Negative n drops the first |n| rows
// instead (tail(-k)), saturating to an empty frame.
func (df *DataFrame) Tail(n int) *DataFrame {
	start, end := tailRange(df.Len(), n)
	return df.sliceRows(start, end)
}

func headRange(length, n int) (int, int) {
	if n >= 0 {
		if n > length {
			n = length
		}
		return 0, n
	}
	k := -n
	if k > length {
		k = length
	}
	return 0, length - k
}

func tailRange(length, n int) (int, int) {
	if n >= 0 {
		if n > length {
			n = length
		}
		return length - n, length
	}
	k := -n
	if k > length {
		k = length
	}
	return k, length
}

func (df *DataFrame) sliceRows(start, end int) *DataFrame {
	if start > end {
		start = end
	}
	newIdx := df.Index.Slice(start, end)
	out := NewDataFrame(newIdx)
	for _, name := range df.order {
		c := df.columns[name]
		n := end - start
		ptrs := make([]*int, n)
		for i := 0; i < n; i++ {
			p := start + i
			ptrs[i] = &p
		}
		sliced := c.ReindexByPositions(ptrs)
		var err error
		out, err = out.WithColumn(name, sliced)
		if err != nil {
			// length invariants guarantee this never fails.
			panic(err)
		}
	}
	return out
}

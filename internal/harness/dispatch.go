package harness

import (
	"encoding/json"
	"fmt"

	"tabula/internal/column"
	"tabula/internal/frame"
	"tabula/internal/groupby"
	"tabula/internal/index"
	"tabula/internal/ioadapter"
	"tabula/internal/join"
	"tabula/internal/policy"
)

// SeriesWire is the wire shape of a Series, matching spec §6's
// column/index encoding: a name, an index label sequence, and a
// dtype-tagged value sequence.
type SeriesWire struct {
	Name  string               `json:"name"`
	Index []ioadapter.WireLabel `json:"index"`
	Values ioadapter.WireColumn `json:"values"`
}

func decodeSeries(w SeriesWire) (frame.Series, error) {
	idx, err := ioadapter.DecodeIndex(w.Index)
	if err != nil {
		return frame.Series{}, err
	}
	col, err := ioadapter.DecodeColumn(w.Values)
	if err != nil {
		return frame.Series{}, err
	}
	return frame.NewSeries(w.Name, idx, col)
}

func encodeSeries(s frame.Series) SeriesWire {
	return SeriesWire{
		Name:   s.Name,
		Index:  ioadapter.EncodeIndex(s.Index),
		Values: ioadapter.EncodeColumn(s.Col),
	}
}

// DataFrameWire is the wire shape of a DataFrame: an index plus a
// name-ordered sequence of columns.
type DataFrameWire struct {
	Index   []ioadapter.WireLabel          `json:"index"`
	Columns map[string]ioadapter.WireColumn `json:"columns"`
	Order   []string                       `json:"order"`
}

func decodeDataFrame(w DataFrameWire) (*frame.DataFrame, error) {
	idx, err := ioadapter.DecodeIndex(w.Index)
	if err != nil {
		return nil, err
	}
	df := frame.NewDataFrame(idx)
	for _, name := range w.Order {
		col, derr := ioadapter.DecodeColumn(w.Columns[name])
		if derr != nil {
			return nil, derr
		}
		df, err = df.WithColumn(name, col)
		if err != nil {
			return nil, err
		}
	}
	return df, nil
}

func encodeDataFrame(df *frame.DataFrame) DataFrameWire {
	cols := make(map[string]ioadapter.WireColumn, len(df.ColumnNames()))
	for _, name := range df.ColumnNames() {
		c, _ := df.Column(name)
		cols[name] = ioadapter.EncodeColumn(c)
	}
	return DataFrameWire{Index: ioadapter.EncodeIndex(df.Index), Columns: cols, Order: df.ColumnNames()}
}

func decodeLabels(w []ioadapter.WireLabel) (*index.Index, error) { return ioadapter.DecodeIndex(w) }

// ExecuteFixture runs a fixture's operation against its decoded
// inputs, returning a JSON-comparable "actual output" value. Policy-
// gated operations append their decision records to ledger.
func ExecuteFixture(f Fixture, ledger *policy.EvidenceLedger) (any, error) {
	if !f.Operation.Valid() {
		return nil, newError(FixtureMalformed, "unrecognized operation %q", f.Operation)
	}
	pol := f.Mode.ToPolicy()

	switch f.Operation {
	case OpSeriesAdd, OpSeriesSub:
		var in struct{ Left, Right SeriesWire }
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		left, err := decodeSeries(in.Left)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode left series: %v", err)
		}
		right, err := decodeSeries(in.Right)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode right series: %v", err)
		}
		op := column.Add
		if f.Operation == OpSeriesSub {
			op = column.Sub
		}
		out, err := left.Arith(right, pol, ledger, op)
		if err != nil {
			return nil, err
		}
		return encodeSeries(out), nil

	case OpSeriesJoin:
		var in struct {
			Left, Right SeriesWire
			JoinType    string
		}
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		left, err := decodeSeries(in.Left)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode left series: %v", err)
		}
		right, err := decodeSeries(in.Right)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode right series: %v", err)
		}
		jt, err := parseJoinType(in.JoinType)
		if err != nil {
			return nil, newError(FixtureMalformed, "%v", err)
		}
		lo, ro, err := join.JoinSeries(left, right, jt, pol, ledger)
		if err != nil {
			return nil, err
		}
		return struct{ Left, Right SeriesWire }{encodeSeries(lo), encodeSeries(ro)}, nil

	case OpMergeDataFrames:
		var in struct {
			Left, Right DataFrameWire
			On, How     string
		}
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		left, err := decodeDataFrame(in.Left)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode left frame: %v", err)
		}
		right, err := decodeDataFrame(in.Right)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode right frame: %v", err)
		}
		jt, err := parseJoinType(in.How)
		if err != nil {
			return nil, newError(FixtureMalformed, "%v", err)
		}
		out, err := join.MergeDataFrames(left, right, in.On, jt, pol, ledger)
		if err != nil {
			return nil, err
		}
		return encodeDataFrame(out), nil

	case OpGroupBySum, OpGroupByMean:
		var in struct{ Keys, Values SeriesWire }
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		keys, err := decodeSeries(in.Keys)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode keys: %v", err)
		}
		values, err := decodeSeries(in.Values)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode values: %v", err)
		}
		fn := groupby.Sum
		if f.Operation == OpGroupByMean {
			fn = groupby.Mean
		}
		out, err := groupby.GroupByAgg(keys, values, fn, groupby.DefaultOptions(), pol, ledger)
		if err != nil {
			return nil, err
		}
		return encodeSeries(out), nil

	case OpIndexAlignUnion, OpIndexAlignInner:
		var in struct{ Left, Right []ioadapter.WireLabel }
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		leftIdx, err := decodeLabels(in.Left)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode left labels: %v", err)
		}
		rightIdx, err := decodeLabels(in.Right)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode right labels: %v", err)
		}
		var plan index.AlignmentPlan
		if f.Operation == OpIndexAlignUnion {
			plan = index.AlignUnion(leftIdx, rightIdx)
		} else {
			plan = index.AlignInner(leftIdx, rightIdx)
		}
		unionIdx, err := index.New(plan.UnionLabels)
		if err != nil {
			return nil, wrap(FixtureMalformed, err)
		}
		return struct {
			UnionLabels []ioadapter.WireLabel `json:"union_labels"`
		}{ioadapter.EncodeIndex(unionIdx)}, nil

	case OpIndexHasDuplicates:
		var in struct{ Labels []ioadapter.WireLabel }
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		idx, err := decodeLabels(in.Labels)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode labels: %v", err)
		}
		return struct {
			HasDuplicates bool `json:"has_duplicates"`
		}{idx.HasDuplicates()}, nil

	case OpIndexFirstPositions:
		var in struct{ Labels []ioadapter.WireLabel }
		if err := json.Unmarshal(f.Inputs, &in); err != nil {
			return nil, newError(FixtureMalformed, "decode inputs: %v", err)
		}
		idx, err := decodeLabels(in.Labels)
		if err != nil {
			return nil, newError(FixtureMalformed, "decode labels: %v", err)
		}
		positions := make([]int, idx.Len())
		for i := 0; i < idx.Len(); i++ {
			p := idx.Position(idx.At(i))
			if p != nil {
				positions[i] = *p
			}
		}
		return struct {
			Positions []int `json:"positions"`
		}{positions}, nil

	default:
		return nil, newError(FixtureMalformed, "operation %q has no dispatcher", f.Operation)
	}
}

func parseJoinType(s string) (join.JoinType, error) {
	switch s {
	case "inner", "Inner":
		return join.Inner, nil
	case "left", "Left":
		return join.Left, nil
	case "right", "Right":
		return join.Right, nil
	case "outer", "Outer":
		return join.Outer, nil
	default:
		return 0, fmt.Errorf("unrecognized join type %q", s)
	}
}

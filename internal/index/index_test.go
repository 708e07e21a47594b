package index

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64s(vs ...int64) []Label {
	out := make([]Label, len(vs))
	for i, v := range vs {
		out[i] = NewInt64Label(v)
	}
	return out
}

func TestNewRejectsMixedKinds(t *testing.T) {
	_, err := New([]Label{NewInt64Label(1), NewUtf8Label("a")})
	require.Error(t, err)
	var idxErr *Error
	require.True(t, errors.As(err, &idxErr))
	assert.Equal(t, AlignmentViolation, idxErr.Kind)
}

func TestHasDuplicates(t *testing.T) {
	idx, err := New(i64s(1, 2, 2, 3))
	require.NoError(t, err)
	assert.True(t, idx.HasDuplicates())

	idx2, err := New(i64s(1, 2, 3))
	require.NoError(t, err)
	assert.False(t, idx2.HasDuplicates())
}

func TestSortOrderCacheAndPosition(t *testing.T) {
	sorted, _ := New(i64s(1, 2, 3, 5, 8))
	assert.Equal(t, AscendingInt64, sorted.SortOrderCache())
	p := sorted.Position(NewInt64Label(5))
	require.NotNil(t, p)
	assert.Equal(t, 3, *p)
	assert.Nil(t, sorted.Position(NewInt64Label(4)))

	unsorted, _ := New(i64s(3, 1, 2))
	assert.Equal(t, Unsorted, unsorted.SortOrderCache())
	p2 := unsorted.Position(NewInt64Label(1))
	require.NotNil(t, p2)
	assert.Equal(t, 1, *p2)
}

func TestAlignUnionLeftFirst(t *testing.T) {
	l, _ := New(i64s(1, 2, 3))
	r, _ := New(i64s(3, 4))
	plan := AlignUnion(l, r)
	assert.Equal(t, i64s(1, 2, 3, 4), plan.UnionLabels)
	require.Len(t, plan.LeftPositions, 4)
	require.Len(t, plan.RightPositions, 4)
	assert.Nil(t, plan.LeftPositions[3])
	assert.Nil(t, plan.RightPositions[0])
	require.NotNil(t, plan.RightPositions[2])
	assert.Equal(t, 0, *plan.RightPositions[2])
}

func TestAlignInnerLeftOrder(t *testing.T) {
	l, _ := New(i64s(5, 1, 3))
	r, _ := New(i64s(1, 3, 9))
	plan := AlignInner(l, r)
	assert.Equal(t, i64s(1, 3), plan.UnionLabels)
}

func TestAlignLeftRightAbsent(t *testing.T) {
	l, _ := New(i64s(1, 2, 3))
	r, _ := New(i64s(2))
	plan := AlignLeft(l, r)
	assert.Equal(t, i64s(1, 2, 3), plan.UnionLabels)
	assert.Nil(t, plan.RightPositions[0])
	require.NotNil(t, plan.RightPositions[1])
	assert.Nil(t, plan.RightPositions[2])
}

func TestValidateAlignmentPlanOutOfRange(t *testing.T) {
	bad := AlignmentPlan{UnionLabels: i64s(1), LeftPositions: []*int{intPtr(5)}, RightPositions: []*int{nil}}
	err := ValidateAlignmentPlan(bad, 2, 2)
	require.Error(t, err)
}

func intPtr(v int) *int { return &v }

func TestLeapfrogUnionSortedOutput(t *testing.T) {
	a, _ := New(i64s(1, 3, 5))
	b, _ := New(i64s(2, 3, 6))
	plan := LeapfrogUnion([]*Index{a, b})
	assert.Equal(t, i64s(1, 2, 3, 5, 6), plan.UnionLabels)
	for i := 1; i < len(plan.UnionLabels); i++ {
		assert.False(t, plan.UnionLabels[i].Less(plan.UnionLabels[i-1]))
	}
}

func TestMultiAlignUnsortedInputProducesSortedUnion(t *testing.T) {
	a, _ := New(i64s(1, 3, 2))
	b, _ := New(i64s(2, 4))
	plan := MultiAlign([]*Index{a, b}, false)
	assert.Equal(t, i64s(1, 2, 3, 4), plan.UnionLabels)

	p0 := plan.Positions[0]
	require.Len(t, p0, 4)
	require.NotNil(t, p0[0])
	assert.Equal(t, 0, *p0[0]) // label 1 is at position 0 in a
	require.NotNil(t, p0[1])
	assert.Equal(t, 2, *p0[1]) // label 2 is at position 2 in a
	require.NotNil(t, p0[2])
	assert.Equal(t, 1, *p0[2]) // label 3 is at position 1 in a
	assert.Nil(t, p0[3])       // label 4 absent from a
}

func TestLeapfrogIntersection(t *testing.T) {
	a, _ := New(i64s(1, 3, 5))
	b, _ := New(i64s(2, 3, 6))
	plan := LeapfrogIntersection([]*Index{a, b})
	assert.Equal(t, i64s(3), plan.UnionLabels)
}

func TestSetOps(t *testing.T) {
	l, _ := New(i64s(1, 2, 3))
	r, _ := New(i64s(2, 3, 4))

	assert.Equal(t, i64s(2, 3), Intersection(l, r).Labels())
	assert.Equal(t, i64s(1, 2, 3, 4), UnionWith(l, r).Labels())
	assert.Equal(t, i64s(1), Difference(l, r).Labels())
	assert.Equal(t, i64s(1, 4), SymmetricDifference(l, r).Labels())
}

func TestIsIn(t *testing.T) {
	idx, _ := New(i64s(1, 2, 3))
	target, _ := New(i64s(2, 3, 9))
	assert.Equal(t, []bool{false, true, true}, idx.IsIn(target))
}

func TestUniqueFirstSeenOrder(t *testing.T) {
	idx, _ := New(i64s(3, 1, 3, 2, 1))
	assert.Equal(t, i64s(3, 1, 2), idx.Unique().Labels())
}

func TestDuplicatedKeepFirst(t *testing.T) {
	idx, _ := New(i64s(1, 2, 1, 3, 2))
	dup := idx.Duplicated(KeepFirst)
	assert.Equal(t, []bool{false, false, true, false, true}, dup)
}

func TestDropDuplicatesKeepLast(t *testing.T) {
	idx, _ := New(i64s(1, 2, 1, 3, 2))
	out := idx.DropDuplicates(KeepLast)
	assert.Equal(t, i64s(1, 3, 2), out.Labels())
}

func TestArgsortStable(t *testing.T) {
	idx, _ := New(i64s(3, 1, 2, 1))
	perm := idx.Argsort()
	sorted, permOut := idx.SortValues()
	assert.Equal(t, perm, permOut)
	assert.Equal(t, i64s(1, 1, 2, 3), sorted.Labels())
	// stability: the two original 1s (positions 1 and 3) keep relative order
	assert.Equal(t, []int{1, 3, 2, 0}, perm)
}

func TestTakeAndSlice(t *testing.T) {
	idx, _ := New(i64s(10, 20, 30, 40))
	taken := idx.Take([]int{2, 0})
	assert.Equal(t, i64s(30, 10), taken.Labels())

	sliced := idx.Slice(1, 3)
	assert.Equal(t, i64s(20, 30), sliced.Labels())
}

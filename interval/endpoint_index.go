package interval

import (
	"math"
)

// An interval-union is stored as a sorted []PosType of interval endpoints:
// element [2k] is the 0-based start of interval #k and element [2k+1] is its
// exclusive end.  Overlapping and touching intervals are merged before they
// get here, so the sequence is strictly increasing.
//
// For example, the intervals
//   [5, 15)
//   [7, 17)
//   [20, 25)
// form the union
//   [5, 17) U [20, 25)
// which is stored as
//   {5, 17, 20, 25}.
//
// UnionScanner walks the covered positions interval by interval:
//   us := NewUnionScanner([]PosType{5, 17, 20, 25})
//   var start, end PosType
//   for us.Scan(&start, &end, 22) {
//     // [5, 17), then [20, 22)
//   }
//   for us.Scan(&start, &end, 30) {
//     // [22, 25)
//   }

// PosType is the type used to represent interval coordinates.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// EndpointIndex is a position in an endpoint sequence.  Odd values lie
// inside an interval.
type EndpointIndex uint32

// Finished returns whether we're past all the intervals.
func (ei EndpointIndex) Finished(endpoints []PosType) bool {
	return ei >= EndpointIndex(len(endpoints))
}

// UnionScanner iterates over the intervals of an interval-union.
// Invariants:
//   endpoints[endpointIdx] is the end of the interval containing pos
//   pos is either contained in an interval, or is PosTypeMax
type UnionScanner struct {
	endpoints   []PosType
	pos         PosType
	endpointIdx EndpointIndex
}

// NewUnionScanner returns a UnionScanner positioned at the first interval.
func NewUnionScanner(endpoints []PosType) UnionScanner {
	startPos := PosType(PosTypeMax)
	startEndpointIdx := EndpointIndex(0)
	if len(endpoints) >= 1 {
		startPos = endpoints[0]
		startEndpointIdx = 1
	}
	return UnionScanner{
		endpoints:   endpoints,
		pos:         startPos,
		endpointIdx: startEndpointIdx,
	}
}

// Scan stores the next covered range below limit in [*start, *end) and
// returns true, or returns false if nothing is left below limit.  A later
// call with a larger limit resumes where the previous one stopped.
func (us *UnionScanner) Scan(start *PosType, end *PosType, limit PosType) bool {
	if us.pos >= limit {
		return false
	}
	*start = us.pos
	intervalEnd := us.endpoints[us.endpointIdx]
	if intervalEnd > limit {
		us.pos = limit
		*end = limit
		return true
	}
	*end = intervalEnd
	us.endpointIdx++
	if us.endpointIdx.Finished(us.endpoints) {
		us.pos = PosTypeMax
	} else {
		us.pos = us.endpoints[us.endpointIdx]
		us.endpointIdx++
	}
	return true
}

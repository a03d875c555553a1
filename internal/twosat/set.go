package twosat

// resetSet represents a set of integers from 0 to N-1 that can be emptied in
// constant time. The free-choice analyzer clears it once per closure
// computation.
type resetSet struct {
	addedAt        []uint16
	addedTimestamp uint16
}

func newResetSet(capa int) *resetSet {
	return &resetSet{
		addedAt:        make([]uint16, capa),
		addedTimestamp: 1,
	}
}

// Contains returns true if v is in the set.
func (rs *resetSet) Contains(v int) bool {
	return rs.addedAt[v] == rs.addedTimestamp
}

// Add adds v to the set.
func (rs *resetSet) Add(v int) {
	rs.addedAt[v] = rs.addedTimestamp
}

// Clear removes all the elements in the set in constant time.
func (rs *resetSet) Clear() {
	rs.addedTimestamp++
	if rs.addedTimestamp == 0 { // overflow
		rs.addedTimestamp = 1
		for i := range rs.addedAt {
			rs.addedAt[i] = 0
		}
	}
}

package stringset

// StringSet is a set of strings that remembers insertion order.
type StringSet struct {
	index map[string]int
	elems []string
}

// New builds a set from elems, dropping duplicates.
func New(elems ...string) *StringSet {
	set := &StringSet{index: make(map[string]int, len(elems))}
	set.Add(elems...)
	return set
}

// Add appends the elements not yet in the set.
func (set *StringSet) Add(elems ...string) {
	for _, elem := range elems {
		if _, ok := set.index[elem]; ok {
			continue
		}
		set.index[elem] = len(set.elems)
		set.elems = append(set.elems, elem)
	}
}

// Len returns the number of elements.
func (set *StringSet) Len() int {
	return len(set.elems)
}

// Contains reports whether str is in the set.
func (set *StringSet) Contains(str string) bool {
	_, ok := set.index[str]
	return ok
}

// ToSlice returns the elements in insertion order.
func (set *StringSet) ToSlice() []string {
	return append([]string(nil), set.elems...)
}

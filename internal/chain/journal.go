package chain

// Change is a modification entry in the transaction journal that can be
// reverted on demand.
type Change interface {
	// Revert undoes the changes introduced by this entry.
	Revert()
}

// ChangeFunc adapts a plain function to the Change interface.
type ChangeFunc func()

// Revert calls f.
func (f ChangeFunc) Revert() { f() }

// journal contains the list of state modifications applied by the running
// transaction. Entries are reverted in reverse order when the transaction
// fails.
type journal struct {
	entries []Change
}

func newJournal() *journal {
	return &journal{}
}

// append inserts a new modification entry to the end of the journal.
func (j *journal) append(entry Change) {
	j.entries = append(j.entries, entry)
}

// revert undoes every entry recorded after the given journal index.
func (j *journal) revert(index int) {
	for i := len(j.entries) - 1; i >= index; i-- {
		j.entries[i].Revert()
	}
	j.entries = j.entries[:index]
}

package chain

// SetValue stores v under k in m and journals the previous entry.
func SetValue[K comparable, V any](tx *Tx, m map[K]V, k K, v V) {
	prev, had := m[k]
	m[k] = v
	tx.Journal(ChangeFunc(func() {
		if had {
			m[k] = prev
		} else {
			delete(m, k)
		}
	}))
}

// DeleteValue removes k from m and journals the removed entry.
func DeleteValue[K comparable, V any](tx *Tx, m map[K]V, k K) {
	prev, had := m[k]
	if !had {
		return
	}
	delete(m, k)
	tx.Journal(ChangeFunc(func() { m[k] = prev }))
}

// SetField assigns v to *p and journals the previous value.
func SetField[V any](tx *Tx, p *V, v V) {
	prev := *p
	*p = v
	tx.Journal(ChangeFunc(func() { *p = prev }))
}

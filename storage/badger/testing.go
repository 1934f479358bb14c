package badger

// NewMemoryStore creates an in-memory Store for testing.
// Closing the Store closes its backend.
func NewMemoryStore() (*Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	s := NewStore(backend)
	s.ownsBackend = true
	return s, nil
}

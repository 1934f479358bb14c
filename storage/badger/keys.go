package badger

// Key prefixes for different data types
const (
	recordPrefix    = "rec"
	dimensionPrefix = "dim"
)

// makeNamespacePrefix returns the prefix shared by all record keys in namespace.
// Format: rec:namespace/
func makeNamespacePrefix(namespace string) []byte {
	return []byte(recordPrefix + ":" + namespace + "/")
}

// makeRecordKey generates a key for a record.
// Format: rec:namespace/id
func makeRecordKey(namespace, id string) []byte {
	return append(makeNamespacePrefix(namespace), id...)
}

// makeDimensionKey generates the key holding a namespace's vector dimension.
func makeDimensionKey(namespace string) []byte {
	return []byte(dimensionPrefix + ":" + namespace)
}

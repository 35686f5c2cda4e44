package badger

import "fmt"

// Key prefixes for different data types
const (
	recordPrefix     = "vecrec"
	collectionPrefix = "veccol"
)

// makeRecordKey generates a key for a vector record by ID.
func makeRecordKey(collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", recordPrefix, collection, id))
}

// makeRecordPrefix generates the scan prefix for all records in a collection.
func makeRecordPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", recordPrefix, collection))
}

// makeCollectionKey generates the key holding collection metadata.
func makeCollectionKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s", collectionPrefix, collection))
}

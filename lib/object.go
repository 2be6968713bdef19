package awsivy

import "time"

// ObjectKey is the path-like identifier of an object within a bucket
type ObjectKey = string

// Object is the metadata of a single stored object, as returned by a
// metadata lookup or as one entry of a listing page.
type Object struct {
	Bucket       string
	Key          ObjectKey
	Size         int64
	LastModified time.Time
	ETag         string
}

// ObjectListing is one page of a prefix listing. An empty NextMarker means
// there are no more pages.
type ObjectListing struct {
	Objects    []*Object
	NextMarker string
}

package filestore

import (
	"io"
	"time"
)

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "CalAccess/DATA/FILERS_CD.TSV").
	Key string

	// Size is the byte size of the object. -1 if unknown.
	Size int64

	ContentType string
	ETag        string

	LastModified time.Time

	// IsDir is true when the entry represents a virtual directory (prefix),
	// not an actual stored object.
	IsDir bool
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ListOptions controls how ListObjects filters results.
type ListOptions struct {
	// Prefix restricts results to objects whose key starts with this string.
	Prefix string

	// Recursive lists everything under the prefix instead of grouping by
	// virtual directories.
	Recursive bool

	// Limit caps the number of results returned. 0 means no cap.
	Limit int
}

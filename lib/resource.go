package awsivy

import (
	"io"
	"time"
)

// epoch is the LastModified of a resource that does not exist.
var epoch = time.Unix(0, 0).UTC()

// Resource is a point-in-time snapshot of one artifact's metadata. Metadata is
// resolved when the Resource is built; content is fetched only by OpenStream.
type Resource struct {
	client Client
	bucket string
	key    ObjectKey

	exists        bool
	contentLength int64
	lastModified  time.Time
	name          string
}

// NewResource resolves the metadata of uri with a single lookup. A missing
// object yields a Resource whose Exists is false; only transport and service
// failures are returned as errors.
func NewResource(client Client, uri string) (*Resource, error) {
	bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	obj, err := client.GetObjectMetadata(bucket, key)
	if err != nil {
		if IsKeyNotFound(err) {
			return newMissingResource(client, bucket, key), nil
		}
		if !IsStoreAccess(err) {
			err = newErrorStoreAccess(err, uri)
		}
		return nil, err
	}
	return newResourceFromObject(client, obj), nil
}

// newResourceFromObject builds a Resource from a listing entry without a
// remote call.
func newResourceFromObject(client Client, obj *Object) *Resource {
	return &Resource{
		client:        client,
		bucket:        obj.Bucket,
		key:           obj.Key,
		exists:        true,
		contentLength: obj.Size,
		lastModified:  obj.LastModified,
		name:          FormatURI(obj.Bucket, obj.Key),
	}
}

func newMissingResource(client Client, bucket string, key ObjectKey) *Resource {
	return &Resource{
		client:       client,
		bucket:       bucket,
		key:          key,
		lastModified: epoch,
	}
}

// Clone resolves newURI from scratch with the same client.
func (r *Resource) Clone(newURI string) (*Resource, error) {
	return NewResource(r.client, newURI)
}

func (r *Resource) Exists() bool { return r.exists }

func (r *Resource) ContentLength() int64 { return r.contentLength }

func (r *Resource) LastModified() time.Time { return r.lastModified }

// Name is s3://bucket/key, or "" when the object does not exist.
func (r *Resource) Name() string { return r.name }

func (r *Resource) Bucket() string { return r.bucket }

func (r *Resource) Key() ObjectKey { return r.key }

// IsLocal is always false.
func (r *Resource) IsLocal() bool { return false }

// OpenStream opens the object's content. The caller closes it.
func (r *Resource) OpenStream() (io.ReadCloser, error) {
	body, err := r.client.GetObjectContent(r.bucket, r.key)
	if err != nil {
		if !IsStoreAccess(err) {
			err = newErrorStoreAccess(err, FormatURI(r.bucket, r.key))
		}
		return nil, err
	}
	return body, nil
}

func (r *Resource) String() string { return r.name }

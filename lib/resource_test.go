package awsivy

import (
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/go-test/deep"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, api *fakeS3) Client {
	return newS3Client(api, NewNopLogger())
}

// observable is what a caller can see of a Resource.
type observable struct {
	Exists        bool
	ContentLength int64
	LastModified  int64
	Name          string
	Bucket        string
	Key           string
}

func observe(r *Resource) observable {
	return observable{
		Exists:        r.Exists(),
		ContentLength: r.ContentLength(),
		LastModified:  r.LastModified().Unix(),
		Name:          r.Name(),
		Bucket:        r.Bucket(),
		Key:           r.Key(),
	}
}

func TestResourceConstructorsAgree(t *testing.T) {
	api := newFakeS3(bucket)
	api.add("org/lib/lib.pom", "<project/>")
	client := newTestClient(t, api)

	resolved, err := NewResource(client, "s3://repo/org/lib/lib.pom")
	require.NoError(t, err)

	page, err := client.ListObjects(bucket, "org/lib/lib.pom", "")
	require.NoError(t, err)
	require.Len(t, page.Objects, 1)
	listed := newResourceFromObject(client, page.Objects[0])

	if diff := deep.Equal(observe(resolved), observe(listed)); diff != nil {
		t.Error(diff)
	}
	assert.True(t, resolved.LastModified().Equal(listed.LastModified()))
}

// A HeadObject that reports not found and a listing that has no entry for
// the key describe the same absent artifact.
func TestResourceNotFoundPathsAgree(t *testing.T) {
	api := newFakeS3(bucket)
	client := newTestClient(t, api)

	resolved, err := NewResource(client, "s3://repo/org/none.jar")
	require.NoError(t, err)

	page, err := client.ListObjects(bucket, "org/none.jar", "")
	require.NoError(t, err)
	assert.Empty(t, page.Objects)

	absent := newMissingResource(client, bucket, "org/none.jar")
	if diff := deep.Equal(observe(absent), observe(resolved)); diff != nil {
		t.Error(diff)
	}
	assert.False(t, resolved.Exists())
	assert.Equal(t, "", resolved.String())
}

func TestResourceOpenStream(t *testing.T) {
	api := newFakeS3(bucket)
	api.add("a.jar", "bytes of a")
	client := newTestClient(t, api)

	r, err := NewResource(client, "s3://repo/a.jar")
	require.NoError(t, err)
	_, _, gets := api.counts()
	assert.Equal(t, 0, gets, "content is not fetched until asked for")

	body, err := r.OpenStream()
	require.NoError(t, err)
	defer body.Close()
	content, err := ioutil.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "bytes of a", string(content))
}

func TestResourceOpenStreamFailure(t *testing.T) {
	api := newFakeS3(bucket)
	api.add("a.jar", "bytes of a")
	client := newTestClient(t, api)

	r, err := NewResource(client, "s3://repo/a.jar")
	require.NoError(t, err)
	api.remove("a.jar")

	_, err = r.OpenStream()
	require.Error(t, err)
	assert.True(t, IsStoreAccess(err))
	assert.False(t, IsKeyNotFound(err))

	var rerr awserr.RequestFailure
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusNotFound, rerr.StatusCode())
}

func TestResourceCloneIsIndependent(t *testing.T) {
	api := newFakeS3(bucket)
	api.add("v1/a.jar", "one")
	client := newTestClient(t, api)

	original, err := NewResource(client, "s3://repo/v1/a.jar")
	require.NoError(t, err)

	clone, err := original.Clone("s3://repo/v2/a.jar")
	require.NoError(t, err)
	assert.False(t, clone.Exists())
	assert.True(t, original.Exists())

	api.add("v2/a.jar", "two!")
	again, err := original.Clone("s3://repo/v2/a.jar")
	require.NoError(t, err)
	assert.True(t, again.Exists())
	assert.Equal(t, int64(4), again.ContentLength())
	assert.NotSame(t, clone, again)

	heads, _, _ := api.counts()
	assert.Equal(t, 3, heads)
}

func TestCloneBypassesStoreCache(t *testing.T) {
	api := newFakeS3(bucket)
	api.add("a.jar", "a")
	store, _ := newTestStore(t, api)

	r, err := store.Resolve("s3://repo/a.jar")
	require.NoError(t, err)
	_, err = r.Clone("s3://repo/b.jar")
	require.NoError(t, err)

	assert.Equal(t, 1, store.cache.Len())
	_, ok := store.cache.Get("s3://repo/b.jar")
	assert.False(t, ok)
}

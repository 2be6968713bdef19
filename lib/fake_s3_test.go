package awsivy

import (
	"bytes"
	"io"
	"io/ioutil"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"go.uber.org/zap/zaptest"
)

type fakeObject struct {
	body         []byte
	lastModified time.Time
	acl          string
}

// fakeS3 is an in-memory S3API for a single bucket. Unimplemented methods
// panic through the embedded nil interface.
type fakeS3 struct {
	s3iface.S3API

	mu      sync.Mutex
	bucket  string
	objects map[string]*fakeObject

	pageSize       int
	sendNextMarker bool
	listErr        error
	getErr         error
	bodyErr        error
	putErr         error

	heads   int
	lists   int
	gets    int
	markers []string
	puts    []*s3.PutObjectInput
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{
		bucket:   bucket,
		objects:  make(map[string]*fakeObject),
		pageSize: 1000,
	}
}

func (f *fakeS3) add(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = &fakeObject{
		body:         []byte(body),
		lastModified: time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func (f *fakeS3) remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
}

func (f *fakeS3) counts() (heads, lists, gets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.heads, f.lists, f.gets
}

func notFound() error {
	return awserr.NewRequestFailure(awserr.New("NotFound", "Not Found", nil), http.StatusNotFound, "req")
}

func (f *fakeS3) HeadObject(in *s3.HeadObjectInput) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heads++
	if aws.StringValue(in.Bucket) != f.bucket {
		return nil, awserr.NewRequestFailure(awserr.New("AccessDenied", "Access Denied", nil), http.StatusForbidden, "req")
	}
	obj, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, notFound()
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.body))),
		LastModified:  aws.Time(obj.lastModified),
		ETag:          aws.String(`"etag"`),
	}, nil
}

func (f *fakeS3) ListObjects(in *s3.ListObjectsInput) (*s3.ListObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	f.markers = append(f.markers, aws.StringValue(in.Marker))
	if f.listErr != nil && f.lists > 1 {
		return nil, f.listErr
	}

	prefix := aws.StringValue(in.Prefix)
	marker := aws.StringValue(in.Marker)
	keys := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) && k > marker {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsOutput{IsTruncated: aws.Bool(false)}
	if len(keys) > f.pageSize {
		keys = keys[:f.pageSize]
		out.IsTruncated = aws.Bool(true)
		if f.sendNextMarker {
			out.NextMarker = aws.String(keys[len(keys)-1])
		}
	}
	for _, k := range keys {
		obj := f.objects[k]
		out.Contents = append(out.Contents, &s3.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.body))),
			LastModified: aws.Time(obj.lastModified),
			ETag:         aws.String(`"etag"`),
		})
	}
	return out, nil
}

type failingReader struct {
	r   io.Reader
	err error
}

func (fr *failingReader) Read(p []byte) (int, error) {
	n, err := fr.r.Read(p)
	if err == io.EOF {
		return n, fr.err
	}
	return n, err
}

func (f *fakeS3) GetObject(in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	obj, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.NewRequestFailure(awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil), http.StatusNotFound, "req")
	}
	var body io.Reader = bytes.NewReader(obj.body)
	if f.bodyErr != nil {
		body = &failingReader{r: body, err: f.bodyErr}
	}
	return &s3.GetObjectOutput{
		Body:          ioutil.NopCloser(body),
		ContentLength: aws.Int64(int64(len(obj.body))),
	}, nil
}

func (f *fakeS3) PutObject(in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	body, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.objects[aws.StringValue(in.Key)] = &fakeObject{
		body:         body,
		lastModified: time.Now().UTC(),
		acl:          aws.StringValue(in.ACL),
	}
	return &s3.PutObjectOutput{}, nil
}

// newTestStore returns a Store whose client is backed by api. Every client
// construction is recorded in configs.
func newTestStore(t *testing.T, api s3iface.S3API) (*Store, *[]*aws.Config) {
	configs := &[]*aws.Config{}
	var mu sync.Mutex
	store := NewStore(DefaultConfig(), &Logger{Logger: zaptest.NewLogger(t)})
	store.newAPI = func(cfg *aws.Config) (s3iface.S3API, error) {
		mu.Lock()
		defer mu.Unlock()
		*configs = append(*configs, cfg)
		return api, nil
	}
	return store, configs
}

// recordingListener keeps every notification it receives.
type recordingListener struct {
	mu        sync.Mutex
	initiated []*TransferEvent
	progress  []int64
	completed []int64
	errs      []error
}

func (r *recordingListener) TransferInitiated(ev *TransferEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initiated = append(r.initiated, ev)
}

func (r *recordingListener) TransferProgress(ev *TransferEvent, transferred int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, transferred)
}

func (r *recordingListener) TransferCompleted(ev *TransferEvent, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, total)
}

func (r *recordingListener) TransferError(ev *TransferEvent, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

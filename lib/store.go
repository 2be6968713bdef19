package awsivy

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the single point of access to an S3-compatible object store. It
// owns the lazily built client, the ACL applied to uploads and the cache of
// resolved resources. A Store is safe for concurrent use.
type Store struct {
	config *Config
	logger *Logger

	credLock  sync.Mutex
	accessKey string
	secretKey string
	acl       ACL

	clientLock sync.Mutex
	client     Client
	newAPI     apiFactory

	cache     *cache
	flight    singleflight.Group
	listeners multiListener
}

var _ Repository = (*Store)(nil)

func NewStore(config *Config, logger *Logger) *Store {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Store{
		config: config,
		logger: logger,
		acl:    DefaultACL,
		newAPI: newS3API,
		cache:  newCache(),
	}
}

// Configure sets the credential pair. The client is not built until the
// first operation that needs it; later changes have no effect on it.
func (s *Store) Configure(accessKey, secretKey string) {
	s.credLock.Lock()
	defer s.credLock.Unlock()
	s.accessKey = accessKey
	s.secretKey = secretKey
}

func (s *Store) SetAccessKey(accessKey string) {
	s.credLock.Lock()
	defer s.credLock.Unlock()
	s.accessKey = accessKey
}

func (s *Store) SetSecretKey(secretKey string) {
	s.credLock.Lock()
	defer s.credLock.Unlock()
	s.secretKey = secretKey
}

// SetACL selects the canned ACL for uploads by its symbolic name.
func (s *Store) SetACL(name string) error {
	acl, err := ParseACL(name)
	if err != nil {
		return err
	}
	s.credLock.Lock()
	defer s.credLock.Unlock()
	s.acl = acl
	return nil
}

func (s *Store) ACL() ACL {
	s.credLock.Lock()
	defer s.credLock.Unlock()
	return s.acl
}

func (s *Store) AddTransferListener(l TransferListener) {
	s.listeners.Add(l)
}

func (s *Store) getClient() (Client, error) {
	s.clientLock.Lock()
	defer s.clientLock.Unlock()
	if s.client != nil {
		return s.client, nil
	}

	s.credLock.Lock()
	accessKey, secretKey := s.accessKey, s.secretKey
	s.credLock.Unlock()

	cfg := awsConfig(s.config, accessKey, secretKey, s.logger)
	svc, err := s.newAPI(cfg)
	if err != nil {
		return nil, newErrorStoreAccess(err, "create client")
	}
	s.client = newS3Client(svc, s.logger)
	s.logger.Info("S3 client created",
		zap.String("region", s.config.Region),
		zap.Bool("ambient_credentials", cfg.Credentials == nil))
	return s.client, nil
}

// Resolve returns the Resource for uri, asking the store at most once per
// distinct uri for the lifetime of s.
func (s *Store) Resolve(uri string) (*Resource, error) {
	if r, ok := s.cache.Get(uri); ok {
		return r, nil
	}
	if _, _, err := ParseURI(uri); err != nil {
		return nil, err
	}

	v, err, _ := s.flight.Do(uri, func() (interface{}, error) {
		if r, ok := s.cache.Get(uri); ok {
			return r, nil
		}
		client, err := s.getClient()
		if err != nil {
			return nil, err
		}
		r, err := NewResource(client, uri)
		if err != nil {
			return nil, err
		}
		s.cache.Add(uri, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resource), nil
}

func (s *Store) Exists(uri string) (bool, error) {
	r, err := s.Resolve(uri)
	if err != nil {
		return false, err
	}
	return r.Exists(), nil
}

// Download copies the content of source to the local file destination.
// Listeners see TransferInitiated, then either TransferCompleted or a single
// TransferError; in the error case the original failure is returned.
func (s *Store) Download(source, destination string) error {
	r, err := s.Resolve(source)
	if err != nil {
		return err
	}

	ev := newTransferEvent(RequestGet, source, destination, r.ContentLength())
	s.listeners.TransferInitiated(ev)
	if err := s.copyTo(r, destination, ev); err != nil {
		s.listeners.TransferError(ev, err)
		return err
	}
	s.listeners.TransferCompleted(ev, r.ContentLength())
	return nil
}

// copyTo writes into a sibling staging file and renames it over destination
// only once the whole stream has been copied.
func (s *Store) copyTo(r *Resource, destination string, ev *TransferEvent) (err error) {
	body, err := r.OpenStream()
	if err != nil {
		return err
	}
	defer body.Close()

	dir := filepath.Dir(destination)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	staging := filepath.Join(dir, "."+filepath.Base(destination)+".part-"+uuid.NewV4().String())
	f, err := os.Create(staging)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(staging)
		}
	}()

	pw := &progressWriter{w: f, ev: ev, listener: &s.listeners}
	if _, err = io.Copy(pw, body); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = os.Rename(staging, destination); err != nil {
		return err
	}
	s.logger.Debug("Download", zap.String("uri", r.Name()), zap.Int64("size", pw.transferred))
	return nil
}

// List returns the URI of every object under parent's key prefix, following
// the listing marker until the store reports no more pages. Every listed
// object is cached, so resolving it afterwards needs no lookup.
func (s *Store) List(parent string) ([]string, error) {
	bucket, prefix, err := ParseURI(parent)
	if err != nil {
		return nil, err
	}
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}

	uris := []string{}
	marker := ""
	for {
		page, err := client.ListObjects(bucket, prefix, marker)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Objects {
			uri := FormatURI(bucket, obj.Key)
			uris = append(uris, uri)
			s.cache.Add(uri, newResourceFromObject(client, obj))
		}
		if page.NextMarker == "" {
			break
		}
		marker = page.NextMarker
	}

	s.logger.Debug("List", zap.String("parent", parent), zap.Int("count", len(uris)))
	return uris, nil
}

// Upload puts the local file source at destination with the configured ACL.
// overwrite is accepted for callers that pass it; the store's own put
// semantics (last write wins) apply either way.
func (s *Store) Upload(source, destination string, overwrite bool) error {
	bucket, key, err := ParseURI(destination)
	if err != nil {
		return err
	}
	info, err := os.Stat(source)
	if err != nil {
		return errors.Wrapf(err, "stat %s", source)
	}
	client, err := s.getClient()
	if err != nil {
		return err
	}

	acl := s.ACL()
	s.logger.Debug("Upload",
		zap.String("source", source),
		zap.String("destination", destination),
		zap.Bool("overwrite", overwrite),
		zap.Stringer("acl", acl))

	ev := newTransferEvent(RequestPut, destination, source, info.Size())
	s.listeners.TransferInitiated(ev)
	if err := client.PutObject(bucket, key, source, acl); err != nil {
		s.listeners.TransferError(ev, err)
		return err
	}
	s.listeners.TransferCompleted(ev, info.Size())
	return nil
}

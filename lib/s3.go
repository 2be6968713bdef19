package awsivy

import (
	"io"
	"net/http"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Client is the subset of object store operations a Store needs.
type Client interface {
	// ListObjects returns one page of objects whose key starts with prefix,
	// beginning after marker.
	ListObjects(bucket, prefix, marker string) (*ObjectListing, error)
	// GetObjectMetadata returns a KeyNotFound error when the object is absent.
	GetObjectMetadata(bucket string, key ObjectKey) (*Object, error)
	GetObjectContent(bucket string, key ObjectKey) (io.ReadCloser, error)
	PutObject(bucket string, key ObjectKey, localPath string, acl ACL) error
}

type apiFactory func(cfg *aws.Config) (s3iface.S3API, error)

func newS3API(cfg *aws.Config) (s3iface.S3API, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "NewSession failed")
	}
	return s3.New(sess, cfg), nil
}

// awsConfig builds the client configuration. Static credentials are used only
// when both keys are set; otherwise Credentials stays nil and the SDK's default
// chain (environment, shared profile, instance role) applies.
func awsConfig(config *Config, accessKey, secretKey string, logger *Logger) *aws.Config {
	cfg := &aws.Config{
		Logger:   aws.Logger(logger),
		LogLevel: aws.LogLevel(config.awsLogLevel()),
	}
	if config.Region != "" {
		cfg.Region = aws.String(config.Region)
	}
	if config.Endpoint != "" {
		cfg.Endpoint = aws.String(config.Endpoint)
	}
	if config.PathStyle {
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	if config.DisableSSL {
		cfg.DisableSSL = aws.Bool(true)
	}
	if accessKey != "" && secretKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}
	return cfg
}

type s3Client struct {
	svc    s3iface.S3API
	logger *Logger
}

func newS3Client(svc s3iface.S3API, logger *Logger) *s3Client {
	return &s3Client{svc: svc, logger: logger}
}

func (s *s3Client) ListObjects(bucket, prefix, marker string) (*ObjectListing, error) {
	s.logger.Debug("ListObjects",
		zap.String("bucket", bucket),
		zap.String("prefix", prefix),
		zap.String("marker", marker))

	params := &s3.ListObjectsInput{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if marker != "" {
		params.Marker = aws.String(marker)
	}
	out, cause := s.svc.ListObjects(params)
	if cause != nil {
		return nil, newErrorStoreAccess(
			errors.Wrapf(cause, "ListObjects failed. bucket = %s, prefix = %s", bucket, prefix),
			FormatURI(bucket, prefix))
	}

	listing := &ObjectListing{Objects: make([]*Object, 0, len(out.Contents))}
	for _, c := range out.Contents {
		listing.Objects = append(listing.Objects, &Object{
			Bucket:       bucket,
			Key:          aws.StringValue(c.Key),
			Size:         aws.Int64Value(c.Size),
			LastModified: aws.TimeValue(c.LastModified),
			ETag:         aws.StringValue(c.ETag),
		})
	}
	// NextMarker is only sent back when a delimiter is given; otherwise the
	// last key of a truncated page continues the listing.
	if aws.BoolValue(out.IsTruncated) {
		listing.NextMarker = aws.StringValue(out.NextMarker)
		if listing.NextMarker == "" && len(listing.Objects) > 0 {
			listing.NextMarker = listing.Objects[len(listing.Objects)-1].Key
		}
	}
	return listing, nil
}

func (s *s3Client) GetObjectMetadata(bucket string, key ObjectKey) (*Object, error) {
	s.logger.Debug("HeadObject", zap.String("bucket", bucket), zap.String("key", key))

	out, cause := s.svc.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if cause != nil {
		if isNotFound(cause) {
			return nil, newErrorKeyNotFound(cause, key)
		}
		return nil, newErrorStoreAccess(
			errors.Wrapf(cause, "HeadObject failed. key = %s", key), FormatURI(bucket, key))
	}
	return &Object{
		Bucket:       bucket,
		Key:          key,
		Size:         aws.Int64Value(out.ContentLength),
		LastModified: aws.TimeValue(out.LastModified),
		ETag:         aws.StringValue(out.ETag),
	}, nil
}

func (s *s3Client) GetObjectContent(bucket string, key ObjectKey) (io.ReadCloser, error) {
	s.logger.Debug("GetObject", zap.String("bucket", bucket), zap.String("key", key))

	obj, cause := s.svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if cause != nil {
		return nil, newErrorStoreAccess(
			errors.Wrapf(cause, "GetObject failed. key = %s", key), FormatURI(bucket, key))
	}
	return obj.Body, nil
}

func (s *s3Client) PutObject(bucket string, key ObjectKey, localPath string, acl ACL) error {
	s.logger.Debug("PutObject",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Stringer("acl", acl))

	f, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "open %s", localPath)
	}
	defer f.Close()

	_, cause := s.svc.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
		ACL:    aws.String(string(acl)),
	})
	if cause != nil {
		return newErrorStoreAccess(
			errors.Wrapf(cause, "PutObject failed. key = %s", key), FormatURI(bucket, key))
	}
	return nil
}

func isNotFound(err error) bool {
	if rerr, ok := err.(awserr.RequestFailure); ok && rerr.StatusCode() == http.StatusNotFound {
		return true
	}
	if aerr, ok := err.(awserr.Error); ok {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}

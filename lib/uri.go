package awsivy

import "strings"

// Scheme is the URI scheme of artifacts kept in S3.
const Scheme = "s3"

const schemePrefix = Scheme + "://"

// ParseURI splits s3://bucket/key into its bucket and key. Both parts must be
// present. The key is taken verbatim, so FormatURI(ParseURI(uri)) == uri.
func ParseURI(uri string) (bucket string, key ObjectKey, err error) {
	if !strings.HasPrefix(uri, schemePrefix) {
		return "", "", newErrorInvalidURI(uri, "scheme must be "+schemePrefix)
	}
	rest := uri[len(schemePrefix):]
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		bucket, key = rest[:i], rest[i+1:]
	} else {
		bucket = rest
	}
	if bucket == "" {
		return "", "", newErrorInvalidURI(uri, "missing bucket")
	}
	if key == "" {
		return "", "", newErrorInvalidURI(uri, "missing key")
	}
	return bucket, key, nil
}

// FormatURI is the inverse of ParseURI.
func FormatURI(bucket string, key ObjectKey) string {
	return schemePrefix + bucket + "/" + key
}

package awsutil

import (
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/kiteco/speechlm/speech-golib/envutil"
	"github.com/kiteco/speechlm/speech-golib/errors"
)

const (
	// buckets without a location constraint live in us-east-1
	defaultBucketRegion = "us-east-1"
)

var (
	// region used to discover bucket locations
	discoveryRegion = envutil.GetenvDefault("AWS_REGION", "us-west-1")
	// directory for the local buffer behind NewBufferedS3Writer
	bufferDir = envutil.GetenvDefault("SPEECHLM_TMPDIR", "")
)

// IsS3URI returns true if the path is an s3 uri.
func IsS3URI(path string) bool {
	return strings.HasPrefix(path, "s3://")
}

// ValidateURI checks whether the given uri points to S3 and names an object.
func ValidateURI(uri string) (*url.URL, error) {
	s3url, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid s3 uri %s", uri)
	}
	if s3url.Scheme != "s3" {
		return nil, errors.Errorf("%s: url is not a s3 path", uri)
	}
	if s3url.Host == "" {
		return nil, errors.Errorf("%s: missing bucket", uri)
	}
	if objectKey(s3url) == "" {
		return nil, errors.Errorf("%s: missing object key", uri)
	}
	return s3url, nil
}

// NewS3Reader returns a io.ReadCloser that will read the contents
// of the object pointed to by the uri. URI will be of the form
// s3://bucket-name/path/to/file
func NewS3Reader(uri string) (io.ReadCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := bucketClient(s3url)
	if err != nil {
		return nil, err
	}

	key := objectKey(s3url)
	out, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s3url.Host),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error getting %s", uri)
	}
	return out.Body, nil
}

// NamedWriteCloser is a file-like object extending io.WriteCloser with a string Name() similar to os.File.Name()
type NamedWriteCloser interface {
	io.WriteCloser
	Name() string
}

type bufferedS3Writer struct {
	f     *os.File
	s3uri *url.URL
}

// NewBufferedS3Writer returns an io.WriteCloser that will write
// to disk and upload to S3 on Close
func NewBufferedS3Writer(uri string) (NamedWriteCloser, error) {
	s3url, err := ValidateURI(uri)
	if err != nil {
		return nil, err
	}

	if bufferDir != "" {
		if err := os.MkdirAll(bufferDir, os.ModePerm); err != nil {
			return nil, err
		}
	}
	f, err := ioutil.TempFile(bufferDir, "s3buffer")
	if err != nil {
		return nil, err
	}
	return bufferedS3Writer{f: f, s3uri: s3url}, nil
}

// Write writes to the local buffer file
func (w bufferedS3Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close uploads the buffered data to s3 and removes the buffer file
func (w bufferedS3Writer) Close() error {
	defer os.Remove(w.f.Name())
	defer w.f.Close()

	if err := w.f.Sync(); err != nil {
		return err
	}
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	client, err := bucketClient(w.s3uri)
	if err != nil {
		return err
	}

	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(w.s3uri.Host),
		Key:    aws.String(objectKey(w.s3uri)),
		Body:   w.f,
	})
	return errors.WrapfOrNil(err, "error uploading %s", w.s3uri)
}

// Name returns the destination uri
func (w bufferedS3Writer) Name() string {
	return w.s3uri.String()
}

// --

func objectKey(uri *url.URL) string {
	return strings.TrimPrefix(uri.Path, "/")
}

// bucketClient returns a client for the region the bucket lives in.
func bucketClient(uri *url.URL) (*s3.S3, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}

	loc, err := s3.New(sess, aws.NewConfig().WithRegion(discoveryRegion)).GetBucketLocation(&s3.GetBucketLocationInput{
		Bucket: aws.String(uri.Host),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to determine region of %s", uri.Host)
	}

	return s3.New(sess, aws.NewConfig().WithRegion(bucketRegion(loc.LocationConstraint))), nil
}

func bucketRegion(constraint *string) string {
	if constraint == nil || *constraint == "" {
		return defaultBucketRegion
	}
	return *constraint
}

// Discard drops the local buffer without uploading it.
func (w bufferedS3Writer) Discard() error {
	w.f.Close()
	return os.Remove(w.f.Name())
}

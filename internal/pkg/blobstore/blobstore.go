// Package blobstore reads and writes gzip compressed JSON objects in an S3
// compatible bucket.
package blobstore

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	ContentTypeJSON = "application/json"
	EncodingGzip    = "gzip"
)

var ErrObjectNotFound = errors.New("blobstore: object not found")

// Bucket is the subset of object storage the aggregation needs.
type Bucket interface {
	// Get returns the object body, transparently decompressed. A missing
	// object yields ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// PutGzip compresses body and overwrites key.
	PutGzip(ctx context.Context, key string, body []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	// ListPrefixes returns the distinct child "directories" right below
	// prefix, without prefix and without the trailing slash.
	ListPrefixes(ctx context.Context, prefix string) ([]string, error)
}

type Store struct {
	S3Client *s3.Client
	S3Bucket string
}

var _ Bucket = (*Store)(nil)

func New(client *s3.Client, bucket string) *Store {
	return &Store{S3Client: client, S3Bucket: bucket}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch ae.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.S3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Wrap(ErrObjectNotFound, key)
		}
		return nil, errors.Wrap(err, "failed to invoke GetObject")
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read object body")
	}
	return Decompress(raw)
}

func (s *Store) PutGzip(ctx context.Context, key string, body []byte) error {
	compressed, err := Compress(body)
	if err != nil {
		return err
	}
	if _, err := s.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(s.S3Bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(compressed),
		ContentType:       aws.String(ContentTypeJSON),
		ContentEncoding:   aws.String(EncodingGzip),
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}); err != nil {
		return errors.Wrap(err, "failed to invoke PutObject")
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.S3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "failed to invoke HeadObject")
	}
	return true, nil
}

func (s *Store) ListPrefixes(ctx context.Context, prefix string) ([]string, error) {
	prefix = withSlash(prefix)
	paginator := s3.NewListObjectsV2Paginator(s.S3Client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.S3Bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var children []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to invoke ListObjectsV2")
		}
		for _, p := range page.CommonPrefixes {
			child := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(p.Prefix), prefix), "/")
			if child != "" {
				children = append(children, child)
			}
		}
	}
	return children, nil
}

func withSlash(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

// Compress gzips body.
func Compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, errors.Wrap(err, "failed to write gzip stream")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to close gzip stream")
	}
	return buf.Bytes(), nil
}

// Decompress gunzips raw when it carries the gzip magic header and returns it
// untouched otherwise. S3 clients may already have decoded the body when the
// object was stored with a gzip Content-Encoding.
func Decompress(raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != 0x1f || raw[1] != 0x8b {
		return raw, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open gzip stream")
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read gzip stream")
	}
	return body, nil
}

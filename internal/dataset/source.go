package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// Source fetches a raw dataset payload and the name used to pick its format.
type Source interface {
	Load(ctx context.Context) ([]byte, string, error)
}

// FileSource reads a dataset from the local filesystem.
type FileSource struct {
	Path string
}

// Load reads the file.
func (f FileSource) Load(_ context.Context) ([]byte, string, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, f.Path, fmt.Errorf("%w: %s", ErrDatasetNotFound, f.Path)
	}
	if err != nil {
		return nil, f.Path, fmt.Errorf("reading dataset %s: %w", f.Path, err)
	}
	return data, f.Path, nil
}

// S3Options configures access to S3-compatible object storage.
type S3Options struct {
	Endpoint  string // custom endpoint, e.g. a MinIO URL; empty uses AWS
	Region    string
	AccessKey string
	SecretKey string
}

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a dataset object from a bucket.
type S3Source struct {
	client objectGetter
	Bucket string
	Key    string
}

// NewS3Source builds a client from opts for the given s3://bucket/key URI.
func NewS3Source(ctx context.Context, uri string, opts S3Options) (*S3Source, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{client: client, Bucket: bucket, Key: key}, nil
}

// Load downloads the object.
func (s *S3Source) Load(ctx context.Context) ([]byte, string, error) {
	ref := "s3://" + s.Bucket + "/" + s.Key
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nsb *types.NoSuchBucket
		if errors.As(err, &nsk) || errors.As(err, &nsb) {
			return nil, s.Key, fmt.Errorf("%w: %s", ErrDatasetNotFound, ref)
		}
		return nil, s.Key, fmt.Errorf("getting %s: %w", ref, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, s.Key, fmt.Errorf("reading %s: %w", ref, err)
	}
	return data, s.Key, nil
}

// OpenSource returns an S3Source for s3:// URIs and a FileSource otherwise.
func OpenSource(ctx context.Context, uri string, opts S3Options) (Source, error) {
	if strings.HasPrefix(uri, "s3://") {
		return NewS3Source(ctx, uri, opts)
	}
	return FileSource{Path: uri}, nil
}

func parseS3URI(ref string) (string, string, error) {
	const p = "s3://"
	if !strings.HasPrefix(ref, p) {
		return "", "", fmt.Errorf("bad s3 uri (missing s3://): %q", ref)
	}
	s := strings.TrimPrefix(ref, p)
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || slash == len(s)-1 {
		return "", "", fmt.Errorf("bad s3 uri (need bucket/key): %q", ref)
	}
	return s[:slash], s[slash+1:], nil
}

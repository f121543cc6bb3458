package archive

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"bike-dash/internal/domain"
)

var _ domain.ArchiveSource = (*S3Source)(nil)

// S3API is the subset of the S3 client used by S3Source.
type S3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the S3 client. Without keys the client sends
// anonymous requests, which public buckets such as baywheels-data accept.
type S3Options struct {
	Region   string
	Endpoint string // optional, for S3-compatible storage
	KeyID    string
	Secret   string
}

// S3Source lists archives under an s3://bucket/prefix location.
type S3Source struct {
	location string
	bucket   string
	prefix   string
	client   S3API
}

// NewS3Source creates a source for location using a client built from opts.
func NewS3Source(location string, opts S3Options) (*S3Source, error) {
	if _, _, err := ParseS3Location(location); err != nil {
		return nil, err
	}

	s3Opts := s3.Options{Region: opts.Region}
	if opts.Region == "" {
		s3Opts.Region = "us-east-1"
	}
	if opts.KeyID != "" && opts.Secret != "" {
		s3Opts.Credentials = credentials.NewStaticCredentialsProvider(opts.KeyID, opts.Secret, "")
	} else {
		s3Opts.Credentials = aws.AnonymousCredentials{}
	}
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		if !strings.Contains(endpoint, "://") {
			endpoint = "https://" + endpoint
		}
		s3Opts.BaseEndpoint = aws.String(endpoint)
		s3Opts.UsePathStyle = true
	}

	return NewS3SourceWithClient(location, s3.New(s3Opts))
}

// NewS3SourceWithClient creates a source that uses an existing client.
func NewS3SourceWithClient(location string, client S3API) (*S3Source, error) {
	bucket, prefix, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}
	return &S3Source{location: location, bucket: bucket, prefix: prefix, client: client}, nil
}

// ParseS3Location extracts bucket and key prefix from "s3://bucket/prefix".
// The prefix may be empty.
func ParseS3Location(location string) (bucket, prefix string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", domain.ErrValidation("parse S3 location %q: %v", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", domain.ErrValidation("expected s3:// scheme, got %q in %q", u.Scheme, location)
	}
	if u.Host == "" {
		return "", "", domain.ErrValidation("empty bucket in S3 location %q", location)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

// Location returns the s3:// location.
func (s *S3Source) Location() string { return s.location }

// List returns every key under the prefix that ends in .zip, as s3:// links,
// in listing order.
func (s *S3Source) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if s.prefix != "" {
		input.Prefix = aws.String(s.prefix)
	}

	var links []string
	p := s3.NewListObjectsV2Paginator(s.client, input)
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, s3FetchError(s.location, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, ArchiveSuffix) {
				links = append(links, s3Link(s.bucket, key))
			}
		}
	}
	return links, nil
}

// s3Link renders bucket and key as an s3:// URL whose path escapes
// survive ParseS3Location.
func s3Link(bucket, key string) string {
	return (&url.URL{Scheme: "s3", Host: bucket, Path: "/" + key}).String()
}

// Open streams one archive object.
func (s *S3Source) Open(ctx context.Context, link string) (io.ReadCloser, int64, error) {
	bucket, key, err := ParseS3Location(link)
	if err != nil {
		return nil, 0, err
	}
	if key == "" {
		return nil, 0, domain.ErrValidation("empty key in S3 link %q", link)
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, s3FetchError(link, err)
	}
	size := int64(-1)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, size, nil
}

func s3FetchError(location string, err error) error {
	fe := &domain.FetchError{URL: location, Err: err}
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		fe.StatusCode = re.HTTPStatusCode()
	}
	return fe
}

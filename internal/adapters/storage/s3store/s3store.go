// Package s3store stores objects in an S3 bucket (or an S3-compatible service).
package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cgiad/internal/ports"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Options configures the client. Empty values fall back to the AWS default chain.
type Options struct {
	Bucket       string
	Prefix       string
	Region       string
	Profile      string
	UsePathStyle bool
}

// API is the subset of *s3.Client used here.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Client implements ports.StorageProvider. S3 only makes an object visible
// once PutObject has completed, so no staging key is needed.
type Client struct {
	api     API
	presign func(ctx context.Context, in *s3.GetObjectInput, expires time.Duration) (string, error)
	bucket  string
	prefix  string
}

// New loads the AWS configuration and builds a client for opts.Bucket.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	sc := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})
	pc := s3.NewPresignClient(sc)

	c := NewWithAPI(sc, opts.Bucket, opts.Prefix)
	c.presign = func(ctx context.Context, in *s3.GetObjectInput, expires time.Duration) (string, error) {
		req, err := pc.PresignGetObject(ctx, in, s3.WithPresignExpires(expires))
		if err != nil {
			return "", err
		}
		return req.URL, nil
	}
	return c, nil
}

// NewWithAPI wraps an existing client; signed URLs are disabled.
func NewWithAPI(api API, bucket, prefix string) *Client {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Client{api: api, bucket: bucket, prefix: prefix}
}

func (c *Client) Provider() string { return "s3" }

func (c *Client) key(objectKey string) string { return c.prefix + objectKey }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("s3: object key is required")
	}
	if in.Reader == nil {
		return ports.PutObjectOutput{}, fmt.Errorf("s3: reader is required")
	}

	put := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(in.ObjectKey)),
		Body:   in.Reader,
	}
	if in.ContentType != "" {
		put.ContentType = aws.String(in.ContentType)
	}
	if in.Size >= 0 {
		put.ContentLength = aws.Int64(in.Size)
	}

	if _, err := c.api.PutObject(ctx, put); err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("s3: put %s: %w", in.ObjectKey, err)
	}
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: in.Size}, nil
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, ports.ObjectInfo, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(objectKey)),
	})
	if err != nil {
		return nil, ports.ObjectInfo{}, mapErr(err)
	}

	info := ports.ObjectInfo{
		ObjectKey:   objectKey,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		ModifiedAt:  aws.ToTime(out.LastModified),
	}
	return out.Body, info, nil
}

func (c *Client) StatObject(ctx context.Context, objectKey string) (ports.ObjectInfo, error) {
	out, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(objectKey)),
	})
	if err != nil {
		return ports.ObjectInfo{}, mapErr(err)
	}
	return ports.ObjectInfo{
		ObjectKey:   objectKey,
		ContentType: aws.ToString(out.ContentType),
		Size:        aws.ToInt64(out.ContentLength),
		ModifiedAt:  aws.ToTime(out.LastModified),
	}, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	_, err := c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(objectKey)),
	})
	if err := mapErr(err); err != nil && !errors.Is(err, ports.ErrObjectNotFound) {
		return err
	}
	return nil
}

func (c *Client) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	expiresAt := time.Now().UTC().Add(expiresIn)
	if c.presign == nil {
		return ports.SignedURLOutput{URL: "", ExpiresAt: expiresAt}, nil
	}
	url, err := c.presign(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(objectKey)),
	}, expiresIn)
	if err != nil {
		return ports.SignedURLOutput{}, fmt.Errorf("s3: presign %s: %w", objectKey, err)
	}
	return ports.SignedURLOutput{URL: url, ExpiresAt: expiresAt}, nil
}

// mapErr turns S3 "missing key" responses into ports.ErrObjectNotFound.
func mapErr(err error) error {
	if err == nil {
		return nil
	}

	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return fmt.Errorf("%w: %v", ports.ErrObjectNotFound, err)
	}
	var nf *s3types.NotFound
	if errors.As(err, &nf) {
		return fmt.Errorf("%w: %v", ports.ErrObjectNotFound, err)
	}
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return fmt.Errorf("%w: %v", ports.ErrObjectNotFound, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
		return fmt.Errorf("%w: %v", ports.ErrObjectNotFound, err)
	}
	return err
}

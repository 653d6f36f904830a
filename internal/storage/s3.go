package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// s3API is the part of the S3 client the document store uses.
type s3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Documents keeps each collection as s3://<bucket>/<prefix>/<collection>.json.
type S3Documents struct {
	api    s3API
	bucket string
	prefix string
}

func NewS3Documents(ctx context.Context, bucket, prefix, region string) (*S3Documents, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return &S3Documents{api: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

func (s *S3Documents) objectKey(c Collection) string {
	return path.Join(s.prefix, c.File())
}

func (s *S3Documents) Fetch(ctx context.Context, c Collection) ([]byte, error) {
	obj, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(c)),
	})
	var missing *types.NoSuchKey
	if errors.As(err, &missing) {
		return nil, fmt.Errorf("%s: %w", c, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s from s3 bucket %s: %w", c, s.bucket, err)
	}
	defer obj.Body.Close()
	return io.ReadAll(obj.Body)
}

func (s *S3Documents) Put(ctx context.Context, c Collection, doc []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.objectKey(c)),
		Body:        bytes.NewReader(doc),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"fleet-collection": string(c)},
	})
	if err != nil {
		return fmt.Errorf("put %s to s3 bucket %s: %w", c, s.bucket, err)
	}
	return nil
}

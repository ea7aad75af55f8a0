package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 client used by S3Disk
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Disk stores files as objects of one bucket, the key being the relative path
type S3Disk struct {
	Client S3API
	Bucket string
}

func NewS3Disk(cfg aws.Config, bucket string) *S3Disk {
	return &S3Disk{Client: s3.NewFromConfig(cfg), Bucket: bucket}
}

func (d *S3Disk) Store(ctx context.Context, name string, content io.Reader) error {
	key, err := Clean(name)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(d.Bucket),
		Key:    aws.String(key),
		Body:   content,
	}
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		input.ContentType = aws.String(ct)
	}
	if _, err := d.Client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

func (d *S3Disk) Exists(ctx context.Context, name string) (bool, error) {
	key, err := Clean(name)
	if err != nil {
		return false, err
	}
	_, err = d.Client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(d.Bucket), Key: aws.String(key)})
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("s3 head %s: %w", key, err)
	}
	return true, nil
}

func (d *S3Disk) Delete(ctx context.Context, name string) error {
	key, err := Clean(name)
	if err != nil {
		return err
	}
	if _, err := d.Client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(d.Bucket), Key: aws.String(key)}); err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (d *S3Disk) Copy(ctx context.Context, src, dst string) error {
	srcKey, err := Clean(src)
	if err != nil {
		return err
	}
	dstKey, err := Clean(dst)
	if err != nil {
		return err
	}
	_, err = d.Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(d.Bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(d.Bucket + "/" + srcKey),
	})
	if isNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("s3 copy %s: %w", srcKey, err)
	}
	return nil
}

func (d *S3Disk) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key, err := Clean(name)
	if err != nil {
		return nil, err
	}
	out, err := d.Client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(d.Bucket), Key: aws.String(key)})
	if isNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	return out.Body, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

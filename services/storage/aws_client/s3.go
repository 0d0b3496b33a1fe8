package aws_client

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/anidavtyan/email-reporting-system/internal/tracing"
)

type S3Client interface {
	Upload(ctx context.Context, uploadInput s3manager.UploadInput) error
	Download(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
}

type s3Client struct {
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	svc        *s3.S3
}

func NewS3Client(sess *session.Session) S3Client {
	return &s3Client{
		uploader:   s3manager.NewUploader(sess),
		downloader: s3manager.NewDownloader(sess),
		svc:        s3.New(sess),
	}
}

func (c *s3Client) Upload(ctx context.Context, uploadInput s3manager.UploadInput) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Client.Upload")
	defer span.Finish()

	_, err := c.uploader.UploadWithContext(ctx, &uploadInput)
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

func (c *s3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Client.Download")
	defer span.Finish()

	buf := aws.NewWriteAtBuffer([]byte{})
	_, err := c.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *s3Client) Delete(ctx context.Context, bucket, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "S3Client.Delete")
	defer span.Finish()

	_, err := c.svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

package storage

import (
	"bytes"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Uploader archives processed documents to S3-compatible storage
type S3Uploader struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// Config holds configuration for S3 uploader
type Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(config *Config) (*S3Uploader, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}

	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	sess := session.Must(session.NewSession(&aws.Config{
		Region:           aws.String(config.Region),
		Endpoint:         aws.String(config.Endpoint),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(false),
	}))

	return &S3Uploader{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
	}, nil
}

// UploadDocument stores a document under a date-partitioned key and
// returns the object key
func (u *S3Uploader) UploadDocument(data []byte, filename string, mediaType string) (string, error) {
	key := path.Join("documents", time.Now().UTC().Format("2006/01/02"), fmt.Sprintf("%d_%s", time.Now().UnixNano(), filename))

	_, err := u.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(mediaType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Store wraps object storage for workspace documents. Objects are keyed by
// workspace slug so a tenant can never address another tenant's files.
type S3Store struct {
	client *s3.S3
	bucket string
}

// NewS3Store creates the store from AWS_REGION and DOCUMENTS_BUCKET.
func NewS3Store() (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	bucket := os.Getenv("DOCUMENTS_BUCKET")
	if bucket == "" {
		bucket = "contabilflow-documents"
	}

	return &S3Store{
		client: s3.New(sess),
		bucket: bucket,
	}, nil
}

// StorageKey builds the object key for a document.
func StorageKey(workspaceSlug, documentID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s", workspaceSlug, documentID, fileName)
}

// Upload stores the object body under the given key.
func (s *S3Store) Upload(key, contentType string, body io.ReadSeeker) error {
	_, err := s.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// PresignedDownloadURL returns a time-limited GET URL for the object.
func (s *S3Store) PresignedDownloadURL(key string, expiry time.Duration) (string, error) {
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign download URL: %w", err)
	}
	return url, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *S3Store) Delete(key string) error {
	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

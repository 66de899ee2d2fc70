package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3DocumentStore struct {
	client        *s3.Client
	presignClient *s3.PresignClient
	bucket        string
	expiry        time.Duration
}

// NewS3DocumentStore stores documents in bucket and signs download URLs
// valid for expiry.
func NewS3DocumentStore(client *s3.Client, bucket string, expiry time.Duration) DocumentStore {
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &s3DocumentStore{
		client:        client,
		presignClient: s3.NewPresignClient(client),
		bucket:        bucket,
		expiry:        expiry,
	}
}

func (s *s3DocumentStore) Put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (s *s3DocumentStore) PresignGet(ctx context.Context, key string) (string, error) {
	resp, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign object %s: %w", key, err)
	}
	return resp.URL, nil
}

// invoiceDocumentKey is where the HTML document of an invoice is stored.
func invoiceDocumentKey(customerID, invoiceNumber string) string {
	return fmt.Sprintf("invoices/%s/%s.html", customerID, invoiceNumber)
}

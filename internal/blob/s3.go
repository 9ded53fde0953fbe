// Package blob is the object-storage collaborator. The server never
// proxies file bytes: clients upload and download through pre-signed
// URLs against an S3-compatible endpoint, and the only direct call we
// make is the best-effort delete when a file record goes away.
package blob

import (
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Store hands out pre-signed URLs for one bucket.
type Store interface {
	PresignUpload(key, contentType string, size int64) (string, error)
	PresignDownload(key, filename string) (string, error)
	// Delete removes the object. Callers treat failures as logged
	// no-ops; an orphaned blob is accepted, a blocked deletion is not.
	Delete(key string) error
}

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

const presignTTL = 15 * time.Minute

type s3Store struct {
	svc    *s3.S3
	bucket string
	logger *log.Logger
}

// NewS3Store builds a Store against an S3-compatible endpoint with
// path-style addressing, the way MinIO and friends expect it.
func NewS3Store(cfg Config) (Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	return &s3Store{
		svc:    s3.New(sess),
		bucket: cfg.Bucket,
		logger: log.New(os.Stdout, "[Blob] ", log.LstdFlags),
	}, nil
}

func (s *s3Store) PresignUpload(key, contentType string, size int64) (string, error) {
	req, _ := s.svc.PutObjectRequest(&s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	return req.Presign(presignTTL)
}

func (s *s3Store) PresignDownload(key, filename string) (string, error) {
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(`attachment; filename="` + filename + `"`),
	})
	return req.Presign(presignTTL)
}

func (s *s3Store) Delete(key string) error {
	_, err := s.svc.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Printf("delete failed for %s: %v", key, err)
	}
	return err
}

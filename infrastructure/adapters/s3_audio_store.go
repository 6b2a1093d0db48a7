package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/tbui88/pdf-tts/application/ports/outbound"
	"github.com/tbui88/pdf-tts/config"
	"github.com/tbui88/pdf-tts/domain"
)

type s3AudioStore struct {
	s3Svc  *s3.S3
	bucket string
	logger outbound.LoggerPort
}

// NewS3AudioStore keeps chunk buffers and artifacts as S3 objects under
// jobs/{job}/chunks/{index}.mp3 and jobs/{job}/output.mp3. Refs are
// object keys.
func NewS3AudioStore(s3Svc *s3.S3, cfg *config.StorageConfig, logger outbound.LoggerPort) outbound.AudioStorePort {
	return &s3AudioStore{
		s3Svc:  s3Svc,
		bucket: cfg.S3Bucket,
		logger: logger,
	}
}

func (s *s3AudioStore) SaveChunk(ctx context.Context, jobID string, index int, data []byte) (string, error) {
	key := fmt.Sprintf("jobs/%s/chunks/%d.mp3", jobID, index)
	return key, s.put(ctx, key, data)
}

func (s *s3AudioStore) ReadChunk(ctx context.Context, ref string) ([]byte, error) {
	out, err := s.s3Svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, &domain.StorageError{Op: "get chunk object", Err: err}
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, &domain.StorageError{Op: "read chunk object", Err: err}
	}
	return data, nil
}

func (s *s3AudioStore) SaveArtifact(ctx context.Context, jobID string, data []byte) (string, error) {
	key := fmt.Sprintf("jobs/%s/output.mp3", jobID)
	return key, s.put(ctx, key, data)
}

func (s *s3AudioStore) OpenArtifact(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	out, err := s.s3Svc.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	})
	if err != nil {
		return nil, 0, &domain.StorageError{Op: "get artifact object", Err: err}
	}
	return out.Body, aws.Int64Value(out.ContentLength), nil
}

func (s *s3AudioStore) RemoveChunks(ctx context.Context, jobID string) error {
	prefix := fmt.Sprintf("jobs/%s/chunks/", jobID)
	listed, err := s.s3Svc.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return &domain.StorageError{Op: "list chunk objects", Err: err}
	}

	for _, obj := range listed.Contents {
		if _, err := s.s3Svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    obj.Key,
		}); err != nil {
			s.logger.ErrorWithFields(err, "failed to delete chunk object", map[string]interface{}{
				"bucket": s.bucket,
				"key":    aws.StringValue(obj.Key),
			})
		}
	}
	return nil
}

func (s *s3AudioStore) RemoveArtifact(ctx context.Context, ref string) error {
	if _, err := s.s3Svc.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(ref),
	}); err != nil {
		return &domain.StorageError{Op: "delete artifact object", Err: err}
	}
	return nil
}

func (s *s3AudioStore) put(ctx context.Context, key string, data []byte) error {
	_, err := s.s3Svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("audio/mpeg"),
	})
	if err != nil {
		return &domain.StorageError{Op: "put object", Err: err}
	}

	s.logger.DebugWithFields("uploaded audio object", map[string]interface{}{
		"bucket": s.bucket,
		"key":    key,
		"bytes":  len(data),
	})
	return nil
}

package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/iot-project/rack-wagon-service/internal/models"
)

// S3Repository allows for the server to archive rack data to S3
type S3Repository struct {
	s3_session *s3Session
	prefix     string
}

// WriteObjectReader writes an object to the S3 bucket from a reader.
func (s *S3Repository) WriteObjectReader(ctx context.Context, reader io.Reader, objectName string, contentType string) error {
	_, err := s.s3_session.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3_session.bucket),
		Key:         aws.String(objectName),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("couldn't upload file %v to %v:%v. Here's why: %w",
			objectName, s.s3_session.bucket, objectName, err)
	}

	return nil
}

// Archive stores the racks and settings as one JSON object named after the
// archive time, with a random suffix so two wipes in the same second never
// overwrite each other.
func (s *S3Repository) Archive(ctx context.Context, archive models.ArchiveModel) error {
	body, err := json.Marshal(archive)
	if err != nil {
		return fmt.Errorf("could not encode archive: %w", err)
	}

	return s.WriteObjectReader(ctx, bytes.NewReader(body), s.ArchiveObjectName(archive), "application/json")
}

func (s *S3Repository) ArchiveObjectName(archive models.ArchiveModel) string {
	name := fmt.Sprintf("archive-%s-%s.json", archive.CreatedAt.UTC().Format("20060102-150405"), uuid.NewString())
	return path.Join(s.prefix, name)
}

func (s *S3Repository) Bucket() string {
	return s.s3_session.bucket
}

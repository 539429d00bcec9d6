// Package reporter uploads session artifacts (screenshots, the target store
// file) to S3 for later inspection. Upload is optional; the agent runs fully
// offline when no bucket is configured.
package reporter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/viceadmiral/game-agent/internal/agent"
)

// S3Uploader handles uploading artifacts to S3.
type S3Uploader struct {
	client     *s3.Client
	bucketName string
	region     string
}

// NewS3Uploader creates a new S3 uploader. Bucket and region fall back to the
// S3_BUCKET_NAME and AWS_REGION environment variables.
func NewS3Uploader(bucketName, region string) (*S3Uploader, error) {
	if bucketName == "" {
		bucketName = os.Getenv("S3_BUCKET_NAME")
		if bucketName == "" {
			return nil, fmt.Errorf("no S3 bucket configured")
		}
	}
	if region == "" {
		region = os.Getenv("AWS_REGION")
		if region == "" {
			region = "us-east-1"
		}
	}

	cfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Uploader{
		client:     s3.NewFromConfig(cfg),
		bucketName: bucketName,
		region:     region,
	}, nil
}

// UploadFile uploads a local file to S3 and returns its URL.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath, s3Key string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read file %s: %w", localPath, err)
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(s3Key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return u.objectURL(s3Key), nil
}

// UploadScreenshot uploads a saved screenshot under the session prefix.
func (u *S3Uploader) UploadScreenshot(ctx context.Context, shot *agent.Screenshot, sessionID string) (string, error) {
	if shot.Filepath == "" {
		return "", fmt.Errorf("screenshot has not been saved locally")
	}
	s3Key := fmt.Sprintf("sessions/%s/screenshots/%s_%s.png",
		sessionID,
		shot.Kind,
		shot.Timestamp.Format("20060102_150405"),
	)
	return u.UploadFile(ctx, shot.Filepath, s3Key)
}

// UploadStateFile uploads the target store backing file under the session
// prefix.
func (u *S3Uploader) UploadStateFile(ctx context.Context, statePath, sessionID string) (string, error) {
	s3Key := fmt.Sprintf("sessions/%s/targets.json", sessionID)
	return u.UploadFile(ctx, statePath, s3Key)
}

func (u *S3Uploader) objectURL(s3Key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucketName, u.region, s3Key)
}

// contentType determines content type from file extension.
func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

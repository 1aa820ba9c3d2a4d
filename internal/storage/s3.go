// Package storage persists audit artifacts of ingestion runs, either in an
// S3-compatible object store or on the local filesystem.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/netgraph-io/netgraph/internal/util"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// NewS3Client builds an S3 client from the AWS_* environment. Returns nil
// when the configuration cannot be loaded; callers fall back to local
// artifact storage.
func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
	if accessKey == "" || secretKey == "" {
		return nil
	}

	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(region),
		config.WithBaseEndpoint(endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
}

// GetFile downloads one object from the configured bucket.
func GetFile(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	bucket := util.GetEnvString("AWS_BUCKET", "netgraph")
	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get file from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return buf.Bytes(), nil
}

// S3ArtifactStore saves run artifacts as JSON objects under
// artifacts/<run>/<name>.json in the configured bucket.
type S3ArtifactStore struct {
	client *s3.Client
	bucket string
}

func NewS3ArtifactStore(client *s3.Client) *S3ArtifactStore {
	return &S3ArtifactStore{
		client: client,
		bucket: util.GetEnvString("AWS_BUCKET", "netgraph"),
	}
}

func (s *S3ArtifactStore) SaveArtifact(
	ctx context.Context,
	runID, name string,
	value any,
) error {
	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", name, err)
	}

	key := fmt.Sprintf("artifacts/%s/%s.json", runID, name)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload artifact %s: %w", key, err)
	}
	return nil
}

// LocalArtifactStore saves run artifacts under a directory on disk. It is
// the fallback when no object store is configured.
type LocalArtifactStore struct {
	dir string
}

func NewLocalArtifactStore(dir string) *LocalArtifactStore {
	return &LocalArtifactStore{dir: dir}
}

func (s *LocalArtifactStore) SaveArtifact(
	_ context.Context,
	runID, name string,
	value any,
) error {
	body, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact %s: %w", name, err)
	}

	dir := filepath.Join(s.dir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".json"), body, 0o644)
}

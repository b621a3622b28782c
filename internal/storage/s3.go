// Package storage publishes graph snapshots to S3-compatible object
// storage. Each ingestion pass uploads the export document and the DOT
// rendering so graph state can be diffed between runs.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/factfeed/factfeed/internal/util"
)

// NewS3Client builds a path-style client from AWS_* env vars. Returns
// nil when configuration fails; callers treat a nil client as snapshot
// publishing disabled.
func NewS3Client(ctx context.Context) *s3.Client {
	region := util.GetEnv("AWS_REGION")
	endpoint := util.GetEnv("AWS_ENDPOINT")
	accessKey := util.GetEnv("AWS_ACCESS_KEY")
	secretKey := util.GetEnv("AWS_SECRET_KEY")
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

// SnapshotPublisher uploads graph snapshots under a fixed key prefix.
type SnapshotPublisher struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

// NewSnapshotPublisher returns nil if client is nil, so the worker can
// call Publish unconditionally.
func NewSnapshotPublisher(client *s3.Client, bucket, prefix string) *SnapshotPublisher {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = "snapshots"
	}
	return &SnapshotPublisher{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Publish uploads the export JSON and DOT text of one pass. Keys are
// timestamped to second precision plus a latest alias per format.
func (p *SnapshotPublisher) Publish(ctx context.Context, exportJSON []byte, dot string) error {
	if p == nil {
		return nil
	}
	stamp := p.now().UTC().Format("2006-01-02T15-04-05Z")

	uploads := []struct {
		key         string
		contentType string
		body        []byte
	}{
		{fmt.Sprintf("%s/%s/graph.json", p.prefix, stamp), "application/json", exportJSON},
		{fmt.Sprintf("%s/%s/graph.dot", p.prefix, stamp), "text/vnd.graphviz", []byte(dot)},
		{fmt.Sprintf("%s/latest/graph.json", p.prefix), "application/json", exportJSON},
		{fmt.Sprintf("%s/latest/graph.dot", p.prefix), "text/vnd.graphviz", []byte(dot)},
	}
	for _, u := range uploads {
		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(u.key),
			Body:        bytes.NewReader(u.body),
			ContentType: aws.String(u.contentType),
		})
		if err != nil {
			return fmt.Errorf("failed to upload snapshot %s: %w", u.key, err)
		}
	}
	return nil
}

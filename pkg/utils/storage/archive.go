package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	appconfig "propertylens_backend/pkg/config"
)

const (
	documentPrefix = "documents/"
	deleteBatch    = 1000
)

// Archive keeps a copy of uploaded documents. Archiving is best effort and
// never part of a request's success path.
type Archive interface {
	Put(ctx context.Context, batchID, fileName string, data []byte) (string, error)
	Sweep(ctx context.Context, olderThan time.Time) (int, error)
}

// NopArchive is used when no bucket is configured.
type NopArchive struct{}

func (NopArchive) Put(context.Context, string, string, []byte) (string, error) { return "", nil }

func (NopArchive) Sweep(context.Context, time.Time) (int, error) { return 0, nil }

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3Archive struct {
	client s3API
	bucket string
	now    func() time.Time
}

// New returns an S3 archive for cfg, or NopArchive when no bucket is set.
// A custom endpoint (Cloudflare R2, MinIO) switches to path-style addressing.
func New(ctx context.Context, cfg appconfig.ArchiveConfig) (Archive, error) {
	if !cfg.Enabled() {
		return NopArchive{}, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Archive(client, cfg.Bucket), nil
}

func NewS3Archive(client s3API, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, now: time.Now}
}

// ObjectKey lays documents out as documents/YYYY/MM/DD/<batch>/<name>-<id>.pdf.
func ObjectKey(now time.Time, batchID, fileName string) string {
	base := strings.TrimSuffix(path.Base(fileName), path.Ext(fileName))
	name := slug.Make(base)
	if name == "" {
		name = "document"
	}
	unique := uuid.New().String()[:8]
	return fmt.Sprintf("%s%s/%s/%s-%s.pdf", documentPrefix, now.UTC().Format("2006/01/02"), slug.Make(batchID), name, unique)
}

func (a *S3Archive) Put(ctx context.Context, batchID, fileName string, data []byte) (string, error) {
	key := ObjectKey(a.now(), batchID, fileName)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/pdf"),
		Metadata:    map[string]string{"original-name": slug.Make(fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("could not upload document: %w", err)
	}
	return key, nil
}

// Sweep deletes archived documents last modified before olderThan and
// returns how many were removed.
func (a *S3Archive) Sweep(ctx context.Context, olderThan time.Time) (int, error) {
	var stale []types.ObjectIdentifier

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(documentPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list archived documents: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(olderThan) {
				stale = append(stale, types.ObjectIdentifier{Key: obj.Key})
			}
		}
	}

	deleted := 0
	for start := 0; start < len(stale); start += deleteBatch {
		end := start + deleteBatch
		if end > len(stale) {
			end = len(stale)
		}
		_, err := a.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(a.bucket),
			Delete: &types.Delete{Objects: stale[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return deleted, fmt.Errorf("delete archived documents: %w", err)
		}
		deleted += end - start
	}
	return deleted, nil
}

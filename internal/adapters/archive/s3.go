// Package archive sube a un bucket S3 (o compatible: MinIO, R2) los picks
// liquidados en cada ejecución, como JSON Lines.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/capcea/bet-backend/internal/domain"
)

// Config configura el bucket destino.
type Config struct {
	Bucket         string
	Region         string
	Endpoint       string // vacío = AWS S3
	Prefix         string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// objectPutter es el subconjunto de *s3.Client que se usa.
type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver implementa ports.Archiver.
type S3Archiver struct {
	client objectPutter
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archiver crea el cliente S3. Sin access key usa la cadena de credenciales
// por defecto de AWS (env, perfil, rol).
func NewS3Archiver(ctx context.Context, cfg Config) (*S3Archiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive.NewS3Archiver: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("archive.NewS3Archiver: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})
	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(client objectPutter, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// ArchiveResolved sube los picks como un objeto JSONL. Sin picks no sube nada.
func (a *S3Archiver) ArchiveResolved(ctx context.Context, runID string, picks []domain.Pick) error {
	if len(picks) == 0 {
		return nil
	}
	body, err := encodeJSONL(picks)
	if err != nil {
		return fmt.Errorf("archive.ArchiveResolved: encode: %w", err)
	}

	key := objectKey(a.prefix, runID, a.now())
	if _, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/x-ndjson"),
	}); err != nil {
		return fmt.Errorf("archive.ArchiveResolved: put %s: %w", key, err)
	}
	return nil
}

// objectKey: {prefix}{yyyy}/{mm}/{dd}/settle-{runID}.jsonl
func objectKey(prefix, runID string, at time.Time) string {
	return fmt.Sprintf("%s%s/settle-%s.jsonl", prefix, at.UTC().Format("2006/01/02"), runID)
}

func encodeJSONL(picks []domain.Pick) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range picks {
		if err := enc.Encode(p); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Options configures the S3 client. Zero values fall back to the default AWS
// credential chain and endpoint.
type Options struct {
	Region    string
	Endpoint  string // S3-compatible endpoint, e.g. MinIO
	AccessKey string
	SecretKey string
	PathStyle bool
}

// S3Client wraps the AWS S3 client for one bucket.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucketName string
}

// ParseURL splits s3://bucket/key.
func ParseURL(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	if path == s3url {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, bucketName string, opts Options) (*S3Client, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		bucketName: bucketName,
	}, nil
}

// Bucket returns the bucket the client is bound to.
func (s *S3Client) Bucket() string { return s.bucketName }

// DownloadToFile streams an object to a new temp file matching pattern and
// returns its path. The caller removes the file.
func (s *S3Client) DownloadToFile(ctx context.Context, key, pattern string) (string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, out.Body); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to read S3 object: %w", err)
	}
	log.Info().Str("bucket", s.bucketName).Str("key", key).Str("file", f.Name()).Msg("downloaded s3 object to temp")
	return f.Name(), nil
}

// UploadFile uploads the local file at path to key and returns the s3:// URL.
func (s *S3Client) UploadFile(ctx context.Context, key, path, contentType string, metadata map[string]string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("UploadFile: upload failed")
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	log.Info().Str("key", key).Str("location", out.Location).Msg("uploaded file to S3")
	return fmt.Sprintf("s3://%s/%s", s.bucketName, key), nil
}

// HeadBucket checks that the bucket exists and is reachable.
func (s *S3Client) HeadBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	return err
}

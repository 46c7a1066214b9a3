package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/moodlebridge/internal/netx"
	"github.com/dmitrijs2005/moodlebridge/internal/server/config"
	"github.com/google/uuid"
)

// presignExpiry bounds both the upload and the download URL.
const presignExpiry = 15 * time.Minute

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	uploadPresigned = netx.UploadToS3PresignedURL
)

// S3Archiver stores reports in an S3-compatible bucket through presigned
// URLs and hands back a presigned GET.
type S3Archiver struct {
	config *config.Config
	http   *http.Client
}

func NewS3Archiver(cfg *config.Config) *S3Archiver {
	return &S3Archiver{config: cfg, http: &http.Client{Timeout: time.Minute}}
}

// ArchiveKey returns exports/<moodle id>/<yyyy>/<mm>/<dd>/<uuid>.csv.
func ArchiveKey(moodleID int64, now time.Time) string {
	return fmt.Sprintf("exports/%d/%04d/%02d/%02d/%s.csv", moodleID, now.Year(), now.Month(), now.Day(), uuid.New())
}

func (a *S3Archiver) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(a.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			a.config.S3RootUser,
			a.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if a.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(a.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

func (a *S3Archiver) Archive(ctx context.Context, moodleID int64, body []byte) (string, error) {
	pc, err := a.getPresignClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := a.config.S3Bucket
	key := ArchiveKey(moodleID, time.Now().UTC())

	put, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String("text/csv"),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}

	if err := uploadPresigned(ctx, a.http, put.URL, "text/csv", body); err != nil {
		return "", err
	}

	get, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	return get.URL, nil
}

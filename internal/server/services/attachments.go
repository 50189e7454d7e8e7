package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avolkov/minipost/internal/common"
	sc "github.com/avolkov/minipost/internal/server/config"
	"github.com/avolkov/minipost/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presignedURLExpiry bounds how long a handed-out upload or download URL
// stays usable.
const presignedURLExpiry = 15 * time.Minute

// Indirections over the AWS SDK so tests can run without a live endpoint.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

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
)

// AttachmentService hands out presigned S3 URLs for post cover images.
// Uploads and downloads both go straight to the object store; the server
// never proxies image bytes.
type AttachmentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAttachmentService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *AttachmentService {
	return &AttachmentService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// GetRandomStorageKey returns a date-bucketed unique object key, e.g.
// covers/2026/8/25/8a6f….
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("covers/%d/%d/%d/%v", d.Year(), int(d.Month()), d.Day(), uuid.New())
}

func (s *AttachmentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

func (s *AttachmentService) getPresignedPutURL(ctx context.Context) (string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignedURLExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *AttachmentService) getPresignedGetURL(ctx context.Context, key string) (string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket

	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignedURLExpiry))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

// CoverUploadURL issues a presigned PUT URL for the cover of postID and
// records the new object key on the post. Only the post's author may call
// it. Re-issuing replaces the recorded key; the old object is left behind
// in the bucket.
func (s *AttachmentService) CoverUploadURL(ctx context.Context, userID string, postID string) (string, string, error) {
	repo := s.repomanager.Posts(s.db)

	post, err := repo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", "", common.ErrNotFound
		}
		return "", "", fmt.Errorf("error loading post: %w", err)
	}
	if post.AuthorID != userID {
		return "", "", common.ErrForbidden
	}

	key, url, err := s.getPresignedPutURL(ctx)
	if err != nil {
		return "", "", fmt.Errorf("error presigning upload: %w", err)
	}

	if err := repo.SetCoverKey(ctx, postID, key); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", "", common.ErrNotFound
		}
		return "", "", fmt.Errorf("error storing cover key: %w", err)
	}

	return key, url, nil
}

// CoverDownloadURL issues a presigned GET URL for the cover of postID.
// A post without a cover reads as not found.
func (s *AttachmentService) CoverDownloadURL(ctx context.Context, postID string) (string, error) {
	post, err := s.repomanager.Posts(s.db).GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("error loading post: %w", err)
	}
	if post.CoverKey == "" {
		return "", common.ErrNotFound
	}

	url, err := s.getPresignedGetURL(ctx, post.CoverKey)
	if err != nil {
		return "", fmt.Errorf("error presigning download: %w", err)
	}

	return url, nil
}

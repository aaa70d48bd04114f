package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

const avatarURLTTL = 15 * time.Minute

// Replaced in tests.
var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

type AvatarUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AvatarService hands out presigned S3 upload URLs for profile pictures.
type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *config.Config
}

func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AvatarService {
	return &AvatarService{db: db, repomanager: m, config: cfg}
}

func avatarKey(userID int64) string {
	return fmt.Sprintf("avatars/%d/%s", userID, uuid.NewString())
}

func (s *AvatarService) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

// UploadURL presigns a PUT for a new object key and records the key as the
// user's avatar. The previous object is not removed.
func (s *AvatarService) UploadURL(ctx context.Context, userID int64) (*AvatarUpload, error) {
	pc, err := s.presignClient(ctx)
	if err != nil {
		return nil, err
	}

	key := avatarKey(userID)
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(avatarURLTTL))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	if err := s.repomanager.Users(s.db).UpdateAvatar(ctx, userID, key); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	return &AvatarUpload{Key: key, URL: req.URL, ExpiresAt: time.Now().Add(avatarURLTTL)}, nil
}

package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"sharebnb/internal/config"
	domain "sharebnb/internal/model"
)

// jpegQuality is used for every normalised upload.
const jpegQuality = 85

// imageTarget describes where an upload kind is stored and its output size.
type imageTarget struct {
	folder        string
	width, height int
}

var (
	avatarTarget = imageTarget{folder: domain.AvatarFolder, width: domain.AvatarWidth, height: domain.AvatarHeight}
	photoTarget  = imageTarget{folder: domain.PhotoFolder, width: domain.PhotoWidth, height: domain.PhotoHeight}
)

// objectAPI is the subset of the S3 client used for R2. *s3.Client satisfies it.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaService normalises images and stores them in Cloudflare R2 through the
// S3 API. It also deletes objects for the media cleanup workers.
type MediaService struct {
	objects   objectAPI
	bucket    string
	publicURL string
}

// NewMediaService builds an R2 client from cfg. It returns
// ErrMediaNotConfigured when any R2 setting is missing.
func NewMediaService(ctx context.Context, cfg *config.Config) (*MediaService, error) {
	if !cfg.MediaConfigured() {
		return nil, domain.ErrMediaNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for R2: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID))
		o.UsePathStyle = true
	})
	return newMediaService(client, cfg.R2BucketName, cfg.R2PublicURL), nil
}

func newMediaService(objects objectAPI, bucket, publicURL string) *MediaService {
	return &MediaService{
		objects:   objects,
		bucket:    bucket,
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

// UploadAvatar stores the image as a 200x200 JPEG under avatars/.
func (s *MediaService) UploadAvatar(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	return s.upload(ctx, file, header, avatarTarget)
}

// UploadListingPhoto stores the image as a 1024x768 JPEG under listings/.
func (s *MediaService) UploadListingPhoto(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*domain.UploadResult, error) {
	return s.upload(ctx, file, header, photoTarget)
}

func (s *MediaService) upload(ctx context.Context, file multipart.File, header *multipart.FileHeader, target imageTarget) (*domain.UploadResult, error) {
	data, _, err := readAndValidateImage(file, header.Size, header.Header.Get("Content-Type"), domain.MaxImageSizeBytes)
	if err != nil {
		return nil, err
	}
	body, err := resizeToJPEG(data, target.width, target.height, jpegQuality)
	if err != nil {
		return nil, err
	}

	key := target.folder + "/" + uuid.NewString() + domain.ImageExt
	_, err = s.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(domain.ContentTypeJPEG),
		CacheControl: aws.String(domain.ImageCacheControl),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s to r2: %w", key, err)
	}

	return &domain.UploadResult{URL: s.publicURL + "/" + key, Key: key}, nil
}

// readAndValidateImage loads the upload into memory with size and type checks.
// contentType falls back to sniffing when the client did not send one.
func readAndValidateImage(r io.Reader, declaredSize int64, contentType string, maxSize int64) ([]byte, string, error) {
	if declaredSize > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", domain.ErrFileTooLarge
	}

	if contentType == "" && len(data) > 0 {
		contentType = http.DetectContentType(data[:min(len(data), 512)])
	}
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	if !domain.IsAllowedImageType(contentType) {
		return nil, "", domain.ErrInvalidImageType
	}

	return data, contentType, nil
}

// resizeToJPEG centers/crops to target size and encodes as JPEG.
func resizeToJPEG(data []byte, width, height, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidImageType, err)
	}

	resized := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DeleteObject removes an object by key. An empty key is a no-op.
func (s *MediaService) DeleteObject(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	_, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s from r2: %w", key, err)
	}
	return nil
}

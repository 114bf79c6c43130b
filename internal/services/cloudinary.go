package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const (
	// ItemImageFolder is where listing photos are stored
	ItemImageFolder = "ridit/items"
	// MaxImageBytes caps a single upload
	MaxImageBytes = 5 << 20
)

var ErrUnsupportedImage = errors.New("file must be a JPEG, PNG or WebP image")

// ImageUploader is what the upload handler needs; CloudinaryService is the
// production implementation.
type ImageUploader interface {
	UploadItemImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
}

type CloudinaryService struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinaryService(cloudName, apiKey, apiSecret string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &CloudinaryService{cld: cld}, nil
}

// DetectImageType sniffs the first bytes and returns the content type when
// it is an accepted image format.
func DetectImageType(head []byte) (string, error) {
	ct := http.DetectContentType(head)
	switch ct {
	case "image/jpeg", "image/png", "image/webp":
		return ct, nil
	}
	return "", ErrUnsupportedImage
}

func (s *CloudinaryService) UploadFile(ctx context.Context, file io.Reader, folder string) (string, error) {
	fileBytes, err := io.ReadAll(io.LimitReader(file, MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	if len(fileBytes) > MaxImageBytes {
		return "", fmt.Errorf("file exceeds %d MB", MaxImageBytes>>20)
	}
	if _, err := DetectImageType(fileBytes); err != nil {
		return "", err
	}

	uploadResult, err := s.cld.Upload.Upload(ctx, fileBytes, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return "", fmt.Errorf("cloudinary: %s", uploadResult.Error.Message)
	}
	return uploadResult.SecureURL, nil
}

// UploadItemImage stores a listing photo and returns its HTTPS URL.
func (s *CloudinaryService) UploadItemImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > MaxImageBytes {
		return "", fmt.Errorf("file exceeds %d MB", MaxImageBytes>>20)
	}
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return "", ErrUnsupportedImage
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return s.UploadFile(ctx, file, ItemImageFolder)
}

package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// UploadURLExpiry is how long a presigned image upload URL stays valid.
const UploadURLExpiry = 300 * time.Second

const (
	defaultFilename    = "image.jpg"
	defaultContentType = "image/jpeg"
)

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	extensionPattern    = regexp.MustCompile(`\.(?P<Ext>[^.]*)$`)
)

// Presigner is the subset of the S3 presign client used for image uploads.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// ObjectAPI is the subset of the S3 client used to check for uploaded images.
type ObjectAPI interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// ImageHandler issues presigned uploads into the product images bucket and
// maps object keys onto the content-delivery domain in front of it.
type ImageHandler struct {
	Bucket    *string
	CDNDomain string
	Presigner Presigner
	Client    ObjectAPI
}

func NewImageHandler(awsConfig aws.Config, bucket, cdnDomain string) *ImageHandler {
	client := s3.NewFromConfig(awsConfig)
	return &ImageHandler{
		Bucket:    aws.String(bucket),
		CDNDomain: cdnDomain,
		Presigner: s3.NewPresignClient(client),
		Client:    client,
	}
}

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with an
// underscore. An empty name falls back to the default image filename.
func SanitizeFilename(name string) string {
	if name == "" {
		return defaultFilename
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// ContentTypeFor guesses an image content type from a filename extension.
func ContentTypeFor(filename string) string {
	matches := extensionPattern.FindStringSubmatch(filename)
	if matches == nil {
		return defaultContentType
	}

	switch strings.ToLower(matches[extensionPattern.SubexpIndex("Ext")]) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	default:
		return defaultContentType
	}
}

// ObjectKey derives the storage key of a product image.
func ObjectKey(productID, filename string) string {
	return fmt.Sprintf("products/%s/%s", productID, filename)
}

// PublicURL returns the content-delivery URL for an object key.
func (h *ImageHandler) PublicURL(key string) string {
	return fmt.Sprintf("https://%s/%s", h.CDNDomain, key)
}

// PresignUpload returns a URL that accepts a single PUT of the image bytes
// with the given content type until UploadURLExpiry elapses.
func (h *ImageHandler) PresignUpload(ctx context.Context, key, contentType string) (string, error) {
	request, err := h.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      h.Bucket,
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadURLExpiry))
	if err != nil {
		return "", fmt.Errorf("could not presign upload for %s: %w", key, err)
	}
	return request.URL, nil
}

// Exists reports whether the object behind key has been uploaded.
func (h *ImageHandler) Exists(ctx context.Context, key string) (bool, error) {
	_, err := h.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: h.Bucket,
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, fmt.Errorf("could not check object %s: %w", key, err)
}

package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cliptube/backend/internal/config"
)

// S3Host implements Host backed by an S3-compatible object store.
type S3Host struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseURL  string
}

// NewS3Host configures a client targeting the provided object store.
func NewS3Host(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Host, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 host: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Host{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		baseURL:  strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload streams the provided content to the configured bucket and returns a
// public reference.
func (h *S3Host) Upload(ctx context.Context, name string, r io.Reader) (Asset, error) {
	key := strings.TrimLeft(name, "/")
	if key == "" {
		return Asset{}, fmt.Errorf("s3 host: empty key")
	}

	_, err := h.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return Asset{}, fmt.Errorf("s3 host upload %s: %w", key, err)
	}

	if h.baseURL == "" {
		return Asset{URL: key}, nil
	}
	return Asset{URL: fmt.Sprintf("%s/%s", h.baseURL, key)}, nil
}

// Delete removes the object identified by ref. The ref may be a full public
// URL or a bare key; the kind is irrelevant to S3 but part of the Host
// contract.
func (h *S3Host) Delete(ctx context.Context, ref string, _ AssetKind) error {
	key := h.keyFromRef(ref)
	if key == "" {
		return fmt.Errorf("s3 host: empty ref")
	}

	_, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 host delete %s: %w", key, err)
	}
	return nil
}

func (h *S3Host) keyFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if h.baseURL != "" && strings.HasPrefix(ref, h.baseURL) {
		ref = strings.TrimPrefix(ref, h.baseURL)
	}
	return strings.TrimLeft(ref, "/")
}

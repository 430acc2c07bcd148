package blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"omnichannel/application/ports"
	apperrors "omnichannel/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// PresignAPI is the subset of the S3 presign client used by the issuer.
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// UploadLinkIssuer mints time-limited S3 upload URLs so browsers can push
// documents straight to the bucket without the payload transiting the API.
type UploadLinkIssuer struct {
	presigner PresignAPI
	bucket    string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewUploadLinkIssuer creates an issuer for the given bucket. Links expire
// after ttl.
func NewUploadLinkIssuer(presigner PresignAPI, bucket string, ttl time.Duration, logger *zap.Logger) *UploadLinkIssuer {
	return &UploadLinkIssuer{
		presigner: presigner,
		bucket:    bucket,
		ttl:       ttl,
		logger:    logger,
	}
}

// IssueUploadLink returns a presigned PUT URL for the given object name.
func (i *UploadLinkIssuer) IssueUploadLink(ctx context.Context, fileName string) (string, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", apperrors.NewValidationError("file name is required")
	}

	request, err := i.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(i.bucket),
		Key:    aws.String(fileName),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = i.ttl
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign upload for %q: %w", fileName, err)
	}

	i.logger.Debug("upload link issued",
		zap.String("bucket", i.bucket),
		zap.String("key", fileName),
		zap.Duration("ttl", i.ttl),
	)

	return request.URL, nil
}

var _ ports.UploadLinkIssuer = (*UploadLinkIssuer)(nil)

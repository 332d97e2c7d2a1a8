package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/chtzvt/certtab/internal/secrets"
)

type S3Sink struct {
	bucket           string
	prefix           string
	region           string
	compression      string
	bufferType       string
	accessKeyID      string
	accessKeySecret  string
	secrets          *secrets.Store
	endpoint         string
	disableChecksums bool
	usePathStyle     bool

	Client PutObjectAPI // test only; nil in prod, set by test
}

// PutObjectAPI abstracts the S3 PutObject method (for testing)
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

func NewS3Sink(opts map[string]interface{}, secrets *secrets.Store) (Sink, error) {
	bucket := stringOpt(opts, "bucket", "")
	region := stringOpt(opts, "region", "")
	if bucket == "" || region == "" {
		return nil, fmt.Errorf("s3 sink requires 'bucket' and 'region' options")
	}

	// Checksum toggles
	var disableChecksums bool
	if v, ok := opts["disable_checksums"]; ok {
		disableChecksums = toBool(v)
	}

	return &S3Sink{
		bucket:           bucket,
		prefix:           stringOpt(opts, "prefix", ""),
		region:           region,
		compression:      stringOpt(opts, "compression", "none"),
		bufferType:       stringOpt(opts, "buffer_type", "memory"),
		accessKeyID:      stringOpt(opts, "access_key_id_secret", "AWS_ACCESS_KEY_ID"),
		accessKeySecret:  stringOpt(opts, "access_key_secret", "AWS_SECRET_ACCESS_KEY"),
		secrets:          secrets,
		endpoint:         stringOpt(opts, "endpoint", stringOpt(opts, "base_endpoint", "")),
		disableChecksums: disableChecksums,
		usePathStyle:     toBool(opts["use_path_style"]),
	}, nil
}

// BuildS3Key joins prefix and name into an object key.
func BuildS3Key(prefix, name string) string {
	return joinKey(prefix, name)
}

func (s *S3Sink) client(ctx context.Context) (PutObjectAPI, error) {
	if s.Client != nil {
		return s.Client, nil
	}
	accessKey, err := secret(ctx, s.secrets, s.accessKeyID)
	if err != nil {
		return nil, err
	}
	secretKey, err := secret(ctx, s.secrets, s.accessKeySecret)
	if err != nil {
		return nil, err
	}
	awsCfgOpts := []func(*config.LoadOptions) error{
		config.WithRegion(s.region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	}
	if s.disableChecksums {
		awsCfgOpts = append(awsCfgOpts,
			config.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
			config.WithResponseChecksumValidation(aws.ResponseChecksumValidationWhenRequired),
		)
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, awsCfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("aws config load error: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if s.endpoint != "" {
			o.BaseEndpoint = aws.String(s.endpoint)
		}
		o.UsePathStyle = s.usePathStyle
	}), nil
}

func (s *S3Sink) Open(ctx context.Context, name string) (SinkWriter, error) {
	client, err := s.client(ctx)
	if err != nil {
		return nil, err
	}
	key := BuildS3Key(s.prefix, name)
	return newUploadWriter(ctx, s.compression, s.bufferType, func(ctx context.Context, body io.Reader, size int64) error {
		_, err := client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          body,
			ContentLength: aws.Int64(size),
		})
		if err != nil {
			return fmt.Errorf("s3 put %s: %w", key, err)
		}
		return nil
	})
}

func init() {
	Register("s3", NewS3Sink)
}

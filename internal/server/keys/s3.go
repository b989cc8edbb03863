package keys

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/authgate/internal/common"
)

// Test seams for the AWS SDK, same trick as the rest of the project: the
// package-level function variables are replaced in tests so no real S3
// endpoint is needed.
var (
	loadDefaultConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx, optFns...)
	}

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in, optFns...)
	}
)

// S3Source fetches key material from an S3-compatible bucket. The two
// objects must contain PEM-encoded halves of the same RSA pair.
type S3Source struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

// ObtainFromS3 downloads both PEM objects and validates them as literal key
// material. Unlike file sources there is no generate-and-persist fallback:
// a bucket is a read-only key store here, so any failure is terminal.
func ObtainFromS3(ctx context.Context, src S3Source, publicKey, privateKey string) (*Provider, error) {
	client, err := src.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}

	pubPEM, err := src.fetch(ctx, client, publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}
	privPEM, err := src.fetch(ctx, client, privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}

	p, err := fromPEM(pubPEM, privPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorKeyGeneration, err)
	}
	return p, nil
}

func (s S3Source) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultConfig(ctx,
		awsconfig.WithRegion(s.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKey,
			s.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
		}
	}), nil
}

func (s S3Source) fetch(ctx context.Context, client *s3.Client, key string) ([]byte, error) {
	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

package services_test

import (
	"context"
	"io"
	"testing"

	"mia-admin/config"
	"mia-admin/internal/services"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingS3 struct {
	s3iface.S3API
	input *s3.PutObjectInput
	body  []byte
}

func (r *recordingS3) PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error) {
	r.input = input
	r.body, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ServiceUploadBytes(t *testing.T) {
	client := &recordingS3{}
	service := services.NewS3ServiceWithClient(client, &config.S3Config{
		BucketName: "mia", Region: "us-east-1", BucketUrl: "https://cdn.example.com/",
	})

	url, err := service.UploadBytes(context.Background(), []byte(`{"a":1}`), "conversas/1/x.json", "application/json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/conversas/1/x.json", url)
	assert.Equal(t, "mia", aws.StringValue(client.input.Bucket))
	assert.Equal(t, "application/json", aws.StringValue(client.input.ContentType))
	assert.Equal(t, `{"a":1}`, string(client.body))
}

func TestS3ServiceDefaultURL(t *testing.T) {
	service := services.NewS3ServiceWithClient(&recordingS3{}, &config.S3Config{BucketName: "mia", Region: "sa-east-1"})

	url, err := service.UploadBytes(context.Background(), nil, "k.json", "application/json")
	require.NoError(t, err)
	assert.Equal(t, "https://mia.s3.sa-east-1.amazonaws.com/k.json", url)
}

func TestNewS3ServiceRequiresBucket(t *testing.T) {
	_, err := services.NewS3Service(&config.S3Config{})
	assert.ErrorIs(t, err, services.ErrStorageNotConfigured)
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mia-admin/config"
	"mia-admin/internal/models"
	"mia-admin/internal/utils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var ErrStorageNotConfigured = errors.New("armazenamento S3 não configurado")

// ObjectStore uploads a blob and returns its public URL.
type ObjectStore interface {
	UploadBytes(ctx context.Context, data []byte, key string, contentType string) (string, error)
}

type S3Service struct {
	s3Client s3iface.S3API
	config   *config.S3Config
}

func NewS3Service(cfg *config.S3Config) (*S3Service, error) {
	if !cfg.Configured() {
		return nil, ErrStorageNotConfigured
	}
	awsConfig := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.ServiceUrl != "" {
		awsConfig.Endpoint = aws.String(cfg.ServiceUrl)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar sessão do S3: %v", err)
	}
	return NewS3ServiceWithClient(s3.New(sess), cfg), nil
}

// NewS3ServiceWithClient wraps an existing client.
func NewS3ServiceWithClient(client s3iface.S3API, cfg *config.S3Config) *S3Service {
	return &S3Service{s3Client: client, config: cfg}
}

func (s *S3Service) UploadBytes(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	params := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}

	utils.LogInfo("Iniciando upload para S3: %s", key)
	if _, err := s.s3Client.PutObjectWithContext(ctx, params); err != nil {
		return "", fmt.Errorf("erro ao fazer upload para S3: %v", err)
	}

	fileUrl := s.objectURL(key)
	utils.LogInfo("Upload concluído: %s", fileUrl)
	return fileUrl, nil
}

func (s *S3Service) objectURL(key string) string {
	if s.config.BucketUrl != "" {
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.config.BucketUrl, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.BucketName, s.config.Region, key)
}

// Transcript is the exported form of one conversation.
type Transcript struct {
	Phone      string         `json:"phone"`
	ExportedAt time.Time      `json:"exported_at"`
	Mode       string         `json:"mode"`
	Turns      []*models.Turn `json:"turns"`
}

// ExportTranscript uploads the conversation history as JSON and returns the
// object URL.
func (s *AttendanceService) ExportTranscript(ctx context.Context, store ObjectStore, phone string) (string, error) {
	if store == nil {
		return "", ErrStorageNotConfigured
	}
	turns, err := s.History(ctx, phone)
	if err != nil {
		return "", err
	}
	if len(turns) == 0 {
		return "", models.ErrNotFound
	}

	now := s.now().UTC()
	transcript := Transcript{
		Phone:      phone,
		ExportedAt: now,
		Mode:       turns[len(turns)-1].EffectiveMode(),
		Turns:      turns,
	}
	data, err := json.MarshalIndent(transcript, "", "  ")
	if err != nil {
		return "", fmt.Errorf("erro ao serializar conversa: %w", err)
	}

	key := fmt.Sprintf("conversas/%s/%s.json", utils.Digits(phone), now.Format("20060102T150405Z"))
	return store.UploadBytes(ctx, data, key, "application/json")
}

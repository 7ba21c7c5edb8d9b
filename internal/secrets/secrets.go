package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Provider supplies named key-value secrets (DB credentials,
// third-party API tokens). Failures are treated as fatal at startup.
type Provider interface {
	Get(ctx context.Context, name string) (map[string]string, error)
}

const defaultRegion = "ap-northeast-2"

// FromEnv picks the secret backend: a local YAML file when
// SECRETS_FILE is set (development), AWS Secrets Manager otherwise.
func FromEnv(ctx context.Context) (Provider, error) {
	if path := os.Getenv("SECRETS_FILE"); path != "" {
		return NewFileProvider(path)
	}
	return NewAWSProvider(ctx)
}

// AWSProvider reads secrets from AWS Secrets Manager. Each secret
// value is a JSON object of string keys.
type AWSProvider struct {
	client *secretsmanager.Client
}

func NewAWSProvider(ctx context.Context) (*AWSProvider, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = defaultRegion
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &AWSProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

func (p *AWSProvider) Get(ctx context.Context, name string) (map[string]string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching secret %q: %w", name, err)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &values); err != nil {
		return nil, fmt.Errorf("secret %q is not a JSON object: %w", name, err)
	}
	return values, nil
}

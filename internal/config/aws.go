package config

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// NeedsAWS reports whether any configured component talks to AWS
func (c *Config) NeedsAWS() bool {
	return c.DBSecretARN != "" || c.Storage.Driver == "s3" || c.Mail.Driver == "ses"
}

// LoadAWS loads the default credential chain for the configured region
func (c *Config) LoadAWS(ctx context.Context) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(c.AWSRegion))
}

// ResolveDSN returns the DATABASE_URL stored in Secrets Manager when
// DB_SECRET_ARN is set, otherwise the DSN built from DB_* settings.
func (c *Config) ResolveDSN(ctx context.Context, awsCfg aws.Config) (string, error) {
	if c.DBSecretARN == "" {
		return c.DSN(), nil
	}

	sm := secretsmanager.NewFromConfig(awsCfg)
	out, err := sm.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(c.DBSecretARN)})
	if err != nil {
		return "", fmt.Errorf("get secret: %w", err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("secret %s has no string value", c.DBSecretARN)
	}

	var payload struct {
		DatabaseURL string `json:"DATABASE_URL"`
	}
	if err := json.Unmarshal([]byte(*out.SecretString), &payload); err != nil {
		return "", fmt.Errorf("parse secret: %w", err)
	}
	if payload.DatabaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL missing in secret")
	}
	return payload.DatabaseURL, nil
}

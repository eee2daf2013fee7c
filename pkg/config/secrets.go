package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

const secretScheme = "sm://"

// ResolveSecrets replaces every credential of the form
// sm://projects/<p>/secrets/<name> with the secret's latest version from
// Google Secret Manager. Values without the prefix pass through untouched,
// so plain env keys keep working without a GCP project.
func (c *Config) ResolveSecrets(ctx context.Context) error {
	refs := []*string{
		&c.ElevenLabsAPIKeys,
		&c.GroqAPIKey,
		&c.PexelsAPIKey,
		&c.PixabayAPIKey,
		&c.YouTubeClientID,
		&c.YouTubeClientSecret,
		&c.InstagramAccessToken,
		&c.TikTokAccessToken,
		&c.FacebookAccessToken,
		&c.LinkedInAccessToken,
	}

	var needed bool
	for _, ref := range refs {
		if strings.HasPrefix(*ref, secretScheme) {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("create secret manager client: %w", err)
	}
	defer func() { _ = client.Close() }()

	for _, ref := range refs {
		if !strings.HasPrefix(*ref, secretScheme) {
			continue
		}
		value, err := fetchSecret(ctx, client, *ref)
		if err != nil {
			return err
		}
		*ref = value
	}
	return nil
}

func fetchSecret(ctx context.Context, client *secretmanager.Client, ref string) (string, error) {
	name := strings.TrimPrefix(ref, secretScheme)
	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}

	resp, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(resp.Payload.Data), nil
}

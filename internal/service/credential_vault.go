package service

import (
	"context"
	"fmt"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type secretManagerVault struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerVault stores seat credentials in Google Secret Manager.
func NewSecretManagerVault(ctx context.Context, projectID, credentialsFile string) (CredentialVault, error) {
	if projectID == "" {
		return nil, fmt.Errorf("GCP project ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Secret Manager client: %w", err)
	}
	return &secretManagerVault{client: client, projectID: projectID}, nil
}

func credentialSecretID(accountID string) string {
	return fmt.Sprintf("seat-%s-credential", accountID)
}

func (v *secretManagerVault) secretPath(accountID string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", v.projectID, credentialSecretID(accountID))
}

func (v *secretManagerVault) Store(ctx context.Context, accountID, secret string) error {
	secretPath := v.secretPath(accountID)

	_, err := v.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: secretPath})
	if status.Code(err) == codes.NotFound {
		_, err = v.client.CreateSecret(ctx, &secretmanagerpb.CreateSecretRequest{
			Parent:   fmt.Sprintf("projects/%s", v.projectID),
			SecretId: credentialSecretID(accountID),
			Secret: &secretmanagerpb.Secret{
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
				Labels: map[string]string{"kind": "seat-credential"},
			},
		})
	}
	if err != nil {
		return fmt.Errorf("prepare secret for account %s: %w", accountID, err)
	}

	_, err = v.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  secretPath,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(secret)},
	})
	if err != nil {
		return fmt.Errorf("add secret version for account %s: %w", accountID, err)
	}
	return nil
}

func (v *secretManagerVault) Reveal(ctx context.Context, accountID string) (string, error) {
	result, err := v.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: v.secretPath(accountID) + "/versions/latest",
	})
	if err != nil {
		return "", fmt.Errorf("access secret for account %s: %w", accountID, err)
	}
	return string(result.Payload.Data), nil
}

func (v *secretManagerVault) Delete(ctx context.Context, accountID string) error {
	err := v.client.DeleteSecret(ctx, &secretmanagerpb.DeleteSecretRequest{Name: v.secretPath(accountID)})
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("delete secret for account %s: %w", accountID, err)
	}
	return nil
}

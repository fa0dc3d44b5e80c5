// Package identity builds cross-account Health API clients. Credential
// assumption itself is an external collaborator; this package only wires
// the assume-role provider into a client for one member account.
package identity

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	awshealth "github.com/aws/aws-sdk-go-v2/service/health"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/beacondata/beacon/internal/health"
)

const roleSessionName = "beacon-data-collection"

// NewHealthAPI assumes the collection role in the given account and returns
// a Health API client pinned to the currently active Health region.
func NewHealthAPI(ctx context.Context, accountID, roleName string) (health.API, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	roleARN := fmt.Sprintf("arn:aws:iam::%s:role/%s", accountID, roleName)
	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(awsCfg), roleARN,
		func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = roleSessionName
		})

	region := health.ActiveRegion()
	client := awshealth.NewFromConfig(awsCfg, func(o *awshealth.Options) {
		o.Region = region
		o.Credentials = aws.NewCredentialsCache(provider)
	})

	return health.NewAWSClient(client), nil
}

package health

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshealth "github.com/aws/aws-sdk-go-v2/service/health"
	healthtypes "github.com/aws/aws-sdk-go-v2/service/health/types"
)

// discoveryPageSize is the maxResults value for event discovery pages.
const discoveryPageSize = 100

// AWSClient implements API against the AWS Health organization endpoints.
type AWSClient struct {
	client *awshealth.Client
}

// NewAWSClient wraps a configured Health SDK client.
func NewAWSClient(client *awshealth.Client) *AWSClient {
	return &AWSClient{client: client}
}

// ListOrganizationEvents pages through DescribeEventsForOrganization.
func (c *AWSClient) ListOrganizationEvents(ctx context.Context, filter EventFilter) ([]EventRef, error) {
	eventFilter := &healthtypes.OrganizationEventFilter{
		LastUpdatedTime: &healthtypes.DateTimeRange{
			From: aws.Time(filter.From),
		},
	}
	if len(filter.Regions) > 0 {
		eventFilter.Regions = filter.Regions
	}

	input := &awshealth.DescribeEventsForOrganizationInput{
		Filter:     eventFilter,
		MaxResults: aws.Int32(discoveryPageSize),
	}

	var refs []EventRef
	for {
		out, err := c.client.DescribeEventsForOrganization(ctx, input)
		if err != nil {
			if IsOrganizationViewDisabled(err) {
				return nil, fmt.Errorf("%w: %v", ErrOrganizationViewDisabled, err)
			}
			return nil, fmt.Errorf("describe events for organization: %w", err)
		}
		for _, ev := range out.Events {
			refs = append(refs, EventRef{
				Arn:       aws.ToString(ev.Arn),
				ScopeCode: Scope(ev.EventScopeCode),
			})
		}
		if out.NextToken == nil {
			return refs, nil
		}
		input.NextToken = out.NextToken
	}
}

// ListAffectedAccounts pages through DescribeAffectedAccountsForOrganization.
func (c *AWSClient) ListAffectedAccounts(ctx context.Context, eventArn string) ([]string, error) {
	input := &awshealth.DescribeAffectedAccountsForOrganizationInput{
		EventArn: aws.String(eventArn),
	}

	var accounts []string
	for {
		out, err := c.client.DescribeAffectedAccountsForOrganization(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe affected accounts for %s: %w", eventArn, err)
		}
		accounts = append(accounts, out.AffectedAccounts...)
		if out.NextToken == nil {
			return accounts, nil
		}
		input.NextToken = out.NextToken
	}
}

// DescribeEventDetails retrieves one batch of detail records. The API takes
// at most ten filters per call and is not token-paginated.
func (c *AWSClient) DescribeEventDetails(ctx context.Context, filters []AccountFilter) ([]EventDetails, error) {
	out, err := c.client.DescribeEventDetailsForOrganization(ctx, &awshealth.DescribeEventDetailsForOrganizationInput{
		OrganizationEventDetailFilters: toEventAccountFilters(filters),
	})
	if err != nil {
		return nil, fmt.Errorf("describe event details: %w", err)
	}

	details := make([]EventDetails, 0, len(out.SuccessfulSet))
	for _, d := range out.SuccessfulSet {
		detail := EventDetails{
			AccountID: aws.ToString(d.AwsAccountId),
			Metadata:  d.EventMetadata,
		}
		if d.Event != nil {
			detail.Event = eventFromSDK(*d.Event)
		}
		if d.EventDescription != nil {
			detail.LatestDescription = aws.ToString(d.EventDescription.LatestDescription)
		}
		details = append(details, detail)
	}
	return details, nil
}

// ListAffectedEntities pages through DescribeAffectedEntitiesForOrganization.
func (c *AWSClient) ListAffectedEntities(ctx context.Context, filters []AccountFilter) ([]AffectedEntity, error) {
	input := &awshealth.DescribeAffectedEntitiesForOrganizationInput{
		OrganizationEntityFilters: toEventAccountFilters(filters),
	}

	var entities []AffectedEntity
	for {
		out, err := c.client.DescribeAffectedEntitiesForOrganization(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("describe affected entities: %w", err)
		}
		for _, e := range out.Entities {
			entities = append(entities, AffectedEntity{
				AccountID:       aws.ToString(e.AwsAccountId),
				EventArn:        aws.ToString(e.EventArn),
				Value:           aws.ToString(e.EntityValue),
				Arn:             aws.ToString(e.EntityArn),
				URL:             aws.ToString(e.EntityUrl),
				StatusCode:      string(e.StatusCode),
				LastUpdatedTime: e.LastUpdatedTime,
				Tags:            e.Tags,
			})
		}
		if out.NextToken == nil {
			return entities, nil
		}
		input.NextToken = out.NextToken
	}
}

// toEventAccountFilters converts filters to SDK form. The NoAccount sentinel
// produces an arn-only filter.
func toEventAccountFilters(filters []AccountFilter) []healthtypes.EventAccountFilter {
	out := make([]healthtypes.EventAccountFilter, 0, len(filters))
	for _, f := range filters {
		sdkFilter := healthtypes.EventAccountFilter{
			EventArn: aws.String(f.EventArn),
		}
		if f.AccountID != NoAccount {
			sdkFilter.AwsAccountId = aws.String(f.AccountID)
		}
		out = append(out, sdkFilter)
	}
	return out
}

func eventFromSDK(ev healthtypes.Event) Event {
	return Event{
		Arn:              aws.ToString(ev.Arn),
		Service:          aws.ToString(ev.Service),
		TypeCode:         aws.ToString(ev.EventTypeCode),
		TypeCategory:     string(ev.EventTypeCategory),
		Region:           aws.ToString(ev.Region),
		AvailabilityZone: aws.ToString(ev.AvailabilityZone),
		StatusCode:       string(ev.StatusCode),
		ScopeCode:        Scope(ev.EventScopeCode),
		StartTime:        ev.StartTime,
		EndTime:          ev.EndTime,
		LastUpdatedTime:  ev.LastUpdatedTime,
	}
}

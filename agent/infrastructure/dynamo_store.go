// Package infrastructure provides concrete implementations of the agent
// domain abstractions.
//
// Key components:
//   - DynamoStore / MemoryStore: merge-upsert telemetry sinks
//   - GpsdSource / SimSource: location sources
//   - FileCredentialStore: anonymous device identity
//   - SystemdRegistrar: durable fallback schedule
//   - ControlServer: stop-signal and health endpoints
package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

// Document field names of a telemetry record. Publish touches only these two;
// any other attributes on the item belong to other writers and stay as is.
const (
	fieldDeviceID  = "device_id"
	fieldLocation  = "location"
	fieldUpdatedAt = "updated_at"
)

// storedCoordinate is the stored shape of the location field.
type storedCoordinate struct {
	Lat float64 `dynamodbav:"lat"`
	Lng float64 `dynamodbav:"lng"`
}

// DynamoStore implements the telemetry sink over a DynamoDB table holding one
// item per device identity.
type DynamoStore struct {
	client    *dynamodb.Client
	tableName agentDomain.TableName
	logger    agentDomain.Logger
}

// Publish merge-upserts the sample into the item keyed by identity.
//
// The write is conditional on the sample being at least as new as the stored
// record, so two overlapping writes converge on the newer sample regardless of
// apply order. A sample rejected as stale is dropped silently: the record
// already reflects fresher data, which is all a best-effort stream promises.
func (s *DynamoStore) Publish(ctx context.Context, identity agentDomain.DeviceIdentity, sample *agentDomain.LocationSample) error {
	if identity == "" {
		return fmt.Errorf("%w: empty device identity", agentDomain.ErrWriteFailed)
	}

	input, err := s.buildUpdate(identity, sample)
	if err != nil {
		return fmt.Errorf("%w: building update: %s", agentDomain.ErrWriteFailed, err.Error())
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var conditionFailed *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			s.logger.Info("dropping stale sample for %s, captured at %s", identity, sample.CapturedAt)
			return nil
		}
		return fmt.Errorf("%w: %s", agentDomain.ErrWriteFailed, err.Error())
	}

	return nil
}

// buildUpdate assembles the conditional merge-upsert request for one sample.
func (s *DynamoStore) buildUpdate(identity agentDomain.DeviceIdentity, sample *agentDomain.LocationSample) (*dynamodb.UpdateItemInput, error) {
	location, err := attributevalue.Marshal(storedCoordinate{
		Lat: sample.Latitude,
		Lng: sample.Longitude,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling coordinate: %w", err)
	}

	timestamp, err := attributevalue.Marshal(sample.CapturedAt.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("marshaling timestamp: %w", err)
	}

	return &dynamodb.UpdateItemInput{
		TableName: aws.String(string(s.tableName)),
		Key: map[string]dynamodbtypes.AttributeValue{
			fieldDeviceID: &dynamodbtypes.AttributeValueMemberS{Value: string(identity)},
		},
		UpdateExpression:    aws.String("SET #loc = :loc, #ts = :ts"),
		ConditionExpression: aws.String("attribute_not_exists(#ts) OR #ts <= :ts"),
		ExpressionAttributeNames: map[string]string{
			"#loc": fieldLocation,
			"#ts":  fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":loc": location,
			":ts":  timestamp,
		},
	}, nil
}

// NewDynamoStore creates a DynamoDB-backed telemetry sink.
func NewDynamoStore(client *dynamodb.Client, tableName agentDomain.TableName, logger agentDomain.Logger) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

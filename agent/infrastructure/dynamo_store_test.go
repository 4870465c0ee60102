package infrastructure

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	agentDomain "github.com/geobeacon/geobeacon/agent/domain"
)

func testTableName(tb testing.TB) agentDomain.TableName {
	tb.Helper()
	tableName, err := agentDomain.NewTableName("locations")
	if err != nil {
		tb.Fatalf("unexpected error: %v", err)
	}
	return tableName
}

func TestDynamoStore_BuildUpdate(t *testing.T) {
	store := NewDynamoStore(nil, testTableName(t), &mockLogger{})
	capturedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sample := &agentDomain.LocationSample{
		CapturedAt: capturedAt,
		Latitude:   50.4501,
		Longitude:  30.5234,
	}

	input, err := store.buildUpdate(agentDomain.DeviceIdentity("u1"), sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if *input.TableName != "locations" {
		t.Errorf("expected table locations, got %s", *input.TableName)
	}

	key, ok := input.Key[fieldDeviceID].(*dynamodbtypes.AttributeValueMemberS)
	if !ok || key.Value != "u1" {
		t.Errorf("expected item keyed by device identity, got %v", input.Key)
	}

	// Only the location and timestamp fields may be touched: the update has
	// to merge into items carrying attributes owned by other writers.
	if *input.UpdateExpression != "SET #loc = :loc, #ts = :ts" {
		t.Errorf("unexpected update expression: %s", *input.UpdateExpression)
	}
	if *input.ConditionExpression != "attribute_not_exists(#ts) OR #ts <= :ts" {
		t.Errorf("unexpected condition expression: %s", *input.ConditionExpression)
	}
	if input.ExpressionAttributeNames["#loc"] != fieldLocation || input.ExpressionAttributeNames["#ts"] != fieldUpdatedAt {
		t.Errorf("unexpected attribute names: %v", input.ExpressionAttributeNames)
	}

	timestamp, ok := input.ExpressionAttributeValues[":ts"].(*dynamodbtypes.AttributeValueMemberN)
	if !ok {
		t.Fatalf("expected a numeric timestamp, got %T", input.ExpressionAttributeValues[":ts"])
	}
	if timestamp.Value != strconv.FormatInt(capturedAt.UnixMilli(), 10) {
		t.Errorf("expected timestamp %d, got %s", capturedAt.UnixMilli(), timestamp.Value)
	}

	location, ok := input.ExpressionAttributeValues[":loc"].(*dynamodbtypes.AttributeValueMemberM)
	if !ok {
		t.Fatalf("expected a map-valued location, got %T", input.ExpressionAttributeValues[":loc"])
	}
	lat, ok := location.Value["lat"].(*dynamodbtypes.AttributeValueMemberN)
	if !ok || lat.Value != "50.4501" {
		t.Errorf("unexpected latitude attribute: %v", location.Value["lat"])
	}
}

func TestDynamoStore_Publish_EmptyIdentity(t *testing.T) {
	store := NewDynamoStore(nil, testTableName(t), &mockLogger{})

	err := store.Publish(context.Background(), "", &agentDomain.LocationSample{CapturedAt: time.Now()})
	if !errors.Is(err, agentDomain.ErrWriteFailed) {
		t.Errorf("expected ErrWriteFailed, got %v", err)
	}
}

package domain

import "errors"

// TableName is the name of the remote document collection holding one
// telemetry record per device.
type TableName string

// NewTableName validates the given string and returns it as a TableName.
func NewTableName(name string) (TableName, error) {
	if name == "" {
		return "", errors.New("table name cannot be empty")
	}
	return TableName(name), nil
}

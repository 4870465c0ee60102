package domain

import "errors"

// SourceAddress is the network address of the positioning service.
type SourceAddress string

// NewSourceAddress validates the given string and returns it as a SourceAddress.
// It returns an error if address equal an empty string.
func NewSourceAddress(address string) (SourceAddress, error) {
	if len(address) == 0 {
		return "", errors.New("source address cannot be empty")
	}
	return SourceAddress(address), nil
}

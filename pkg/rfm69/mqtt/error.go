package mqtt

import "errors"

var (
	// ErrNotConnected is returned when attempting to perform an operation on a client that is not connected to the broker.
	ErrNotConnected = errors.New("client is not connected to broker")
	// ErrInvalidEnvelope indicates a published envelope could not be decoded.
	ErrInvalidEnvelope = errors.New("invalid envelope data format")
	// ErrInvalidTopic indicates a downlink topic does not name a target node.
	ErrInvalidTopic = errors.New("invalid downlink topic")
)

package mqtt

import "errors"

// Errors returned by the MQTT client. Check them with errors.Is; broker
// failures are wrapped in the operation's error.
var (
	// ErrConnectionFailed means the first connection to the broker did not succeed.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrNotConnected means the broker is currently unreachable. Publishes are
	// not queued; the next status publish or LED change retries naturally.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrPublishFailed wraps a rejected, oversized or unacknowledged publish.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps a rejected or unacknowledged subscribe.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed wraps a rejected or unacknowledged unsubscribe.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS rejects QoS levels other than 0, 1 and 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic rejects an empty topic.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)

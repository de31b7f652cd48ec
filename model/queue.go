// model/queue.go
package model

import "time"

type QueueStatus string

const (
	QueueWaiting  QueueStatus = "waiting"
	QueueNotified QueueStatus = "notified"
	QueueEnrolled QueueStatus = "enrolled"
	QueueExpired  QueueStatus = "expired"
)

// waiting -> notified -> {enrolled | expired}; waiting entries may also be
// removed outright via leave. No transition skips notified.
var queueTransitions = map[QueueStatus][]QueueStatus{
	QueueWaiting:  {QueueNotified},
	QueueNotified: {QueueEnrolled, QueueExpired},
}

func (s QueueStatus) CanTransition(to QueueStatus) bool {
	for _, t := range queueTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type QueueEntry struct {
	ID          int64       `json:"id"`
	ResourceID  int64       `json:"resource_id"`
	RequesterID int64       `json:"requester_id"`
	Position    int         `json:"position"`
	Status      QueueStatus `json:"status"`
	JoinedAt    time.Time   `json:"joined_at"`
	NotifiedAt  *time.Time  `json:"notified_at,omitempty"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

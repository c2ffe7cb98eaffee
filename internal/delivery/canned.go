package delivery

import (
	"context"
	"fmt"
	"time"
)

// CannedSender fabricates replies without any network, for mock-data mode.
type CannedSender struct {
	// Reply builds the reply text from the user content. When nil a generic
	// echo reply is produced.
	Reply func(content string) string

	// Delay simulates backend latency.
	Delay time.Duration
}

func (s *CannedSender) Send(ctx context.Context, conversationID, content string) (string, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Reply != nil {
		return s.Reply(content), nil
	}
	return fmt.Sprintf("Mock response to: %q", content), nil
}

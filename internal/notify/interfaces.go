package notify

import "context"

// Notifier delivers a composed message to a channel
type Notifier interface {
	Dispatch(ctx context.Context, channelID, message string) error
}

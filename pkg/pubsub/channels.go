package pubsub

import "fmt"

// Channel naming convention for group fan-out.
const channelFanout = "mimi:fanout:%s"

// FanoutChannel returns the bus channel name for a group key.
func FanoutChannel(groupKey string) string {
	return fmt.Sprintf(channelFanout, groupKey)
}

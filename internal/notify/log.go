package notify

import (
	"context"
	"log"
)

// LogNotifier writes one log line per event.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier logs through logger, or the standard logger when nil.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, event Event) {
	if n.logger != nil {
		n.logger.Printf("Form Updated (%s %s, event %s)", event.Operation, event.Field, event.ID)
		return
	}
	log.Printf("Form Updated (%s %s, event %s)", event.Operation, event.Field, event.ID)
}

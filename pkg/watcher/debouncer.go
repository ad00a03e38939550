package watcher

import (
	"context"
	"time"

	"github.com/ritzau/drawio-codegen/pkg/logging"
)

// Debouncer merges bursts of change events. It emits once the input has
// been quiet for quietPeriod, or maxWait after the first pending event,
// whichever comes first. Each flush is a single event: a burst touching
// config and diagrams comes out as one config change listing both.
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       <-chan time.Time
		deadline    <-chan time.Time
		accumulated = make(map[ChangeType][]string)
		seen        = make(map[string]bool)
		eventCount  int
	)

	flush := func() {
		quiet, deadline = nil, nil
		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		merged := ChangeEvent{Type: ChangeTypeDiagram, Timestamp: time.Now()}
		if len(accumulated[ChangeTypeConfig]) > 0 {
			merged.Type = ChangeTypeConfig
		}
		// Config paths first: a reload may change how diagrams are generated
		merged.Paths = append(merged.Paths, accumulated[ChangeTypeConfig]...)
		merged.Paths = append(merged.Paths, accumulated[ChangeTypeDiagram]...)
		d.output <- merged

		accumulated = make(map[ChangeType][]string)
		seen = make(map[string]bool)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			for _, p := range event.Paths {
				key := event.Type.String() + ":" + p
				if !seen[key] {
					seen[key] = true
					accumulated[event.Type] = append(accumulated[event.Type], p)
				}
			}
			eventCount++

			quiet = time.After(d.quietPeriod)
			if deadline == nil {
				deadline = time.After(d.maxWait)
			}

		case <-quiet:
			flush()

		case <-deadline:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}

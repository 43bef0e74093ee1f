package car

import "time"

// JournalKind labels what produced a journal line
type JournalKind string

const (
	JournalCarStart    JournalKind = "car_start"
	JournalEngineStart JournalKind = "engine_start"
	JournalCarStop     JournalKind = "car_stop"
	JournalEngineStop  JournalKind = "engine_stop"
	JournalEngineSwap  JournalKind = "engine_swap"
)

// JournalEntry records a single line the car emitted
type JournalEntry struct {
	ID         string      `json:"id"`
	Seq        int         `json:"seq"`
	Kind       JournalKind `json:"kind"`
	Line       string      `json:"line"`
	EngineType string      `json:"engine_type"`
	Timestamp  time.Time   `json:"timestamp"`
}

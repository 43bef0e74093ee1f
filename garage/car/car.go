package car

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/enginebay/garage/garage/engine"
)

// ErrNilEngine is returned when a nil engine is supplied at construction
// or replacement.
var ErrNilEngine = errors.New("engine cannot be nil")

// Car holds exactly one engine and delegates engine-specific behavior to
// it. Every emitted line is recorded in the trip journal in emission order.
type Car struct {
	mu      sync.Mutex
	engine  engine.Engine
	swaps   int
	nextSeq int
	journal []JournalEntry
}

// NewCar creates a car holding the provided engine
func NewCar(e engine.Engine) (*Car, error) {
	if e == nil {
		return nil, ErrNilEngine
	}
	return &Car{
		engine:  e,
		nextSeq: 1,
	}, nil
}

// Restore rebuilds a car from a persisted journal. The sequence counter
// continues after the restored tail.
func Restore(e engine.Engine, journal []JournalEntry) (*Car, error) {
	c, err := NewCar(e)
	if err != nil {
		return nil, err
	}

	if len(journal) > 0 {
		c.journal = append(c.journal, journal...)
		c.nextSeq = journal[len(journal)-1].Seq + 1
	}
	for _, entry := range journal {
		if entry.Kind == JournalEngineSwap {
			c.swaps++
		}
	}
	return c, nil
}

// Start emits the car line naming the current engine's type, then delegates
// to the engine. The car line always precedes the engine line; a swap cannot
// interleave between the two.
func (c *Car) Start() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	carLine := fmt.Sprintf("Car is starting with %s", c.engine.Type())
	engineLine := c.engine.Start()
	c.record(JournalCarStart, carLine)
	c.record(JournalEngineStart, engineLine)
	return []string{carLine, engineLine}
}

// Stop emits the car stop line, then delegates to the engine
func (c *Car) Stop() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	carLine := fmt.Sprintf("Car is stopping with %s", c.engine.Type())
	engineLine := c.engine.Stop()
	c.record(JournalCarStop, carLine)
	c.record(JournalEngineStop, engineLine)
	return []string{carLine, engineLine}
}

// SetEngine replaces the held engine. The swap takes effect immediately:
// every subsequent Start and Stop delegates to the replacement.
func (c *Car) SetEngine(e engine.Engine) (string, error) {
	if e == nil {
		return "", ErrNilEngine
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.engine = e
	c.swaps++
	line := fmt.Sprintf("Engine replaced with: %s", e.Type())
	c.record(JournalEngineSwap, line)
	return line, nil
}

// Engine returns the currently held engine
func (c *Car) Engine() engine.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// EngineType returns the label of the currently held engine
func (c *Car) EngineType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Type()
}

// Swaps returns how many times the engine was replaced
func (c *Car) Swaps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.swaps
}

// Journal returns a copy of the trip journal in emission order
func (c *Car) Journal() []JournalEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	journal := make([]JournalEntry, len(c.journal))
	copy(journal, c.journal)
	return journal
}

// JournalLen returns the number of journal entries
func (c *Car) JournalLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.journal)
}

// TrimJournal drops the oldest entries so at most keep remain, returning
// how many were dropped. Sequence numbers of kept entries are unchanged.
func (c *Car) TrimJournal(keep int) int {
	if keep < 0 {
		keep = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.journal) <= keep {
		return 0
	}
	dropped := len(c.journal) - keep
	c.journal = append([]JournalEntry(nil), c.journal[dropped:]...)
	return dropped
}

// record appends a journal entry. Callers hold the car mutex.
func (c *Car) record(kind JournalKind, line string) {
	c.journal = append(c.journal, JournalEntry{
		ID:         uuid.New().String(),
		Seq:        c.nextSeq,
		Kind:       kind,
		Line:       line,
		EngineType: c.engine.Type(),
		Timestamp:  time.Now(),
	})
	c.nextSeq++
}

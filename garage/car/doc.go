// Package car implements the delegating car at the center of the garage.
//
// A Car holds exactly one engine.Engine at a time and forwards all
// engine-specific behavior to it:
//   - Start emits "Car is starting with <type>" followed by the engine's
//     own start line
//   - Stop emits the matching stop pair
//   - SetEngine swaps the held engine and emits "Engine replaced with:
//     <type>"; the swap takes effect immediately
//
// Construction and replacement reject a nil engine with ErrNilEngine. The
// car never bypasses its current engine reference: after a swap, no call
// reaches the previous engine.
//
// Every emitted line is recorded in the trip journal in emission order
// with a strictly increasing per-car sequence number. Journals survive
// restarts via Restore and can be bounded with TrimJournal.
//
// Usage:
//
//	eng, _ := engine.Build(engine.KindPetrol)
//	c, err := car.NewCar(eng)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for _, line := range c.Start() {
//		fmt.Println(line)
//	}
//
// Concurrency:
//
// All methods serialize on a per-car mutex, so a car may be shared across
// request goroutines without external locking.
package car

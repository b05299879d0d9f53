package domain

// Snapshot is a consistent, immutable view of the raw event store. Every
// projection is a pure function of a Snapshot; recomputing from an identical
// snapshot yields identical output. Slices are in append order and must not
// be mutated by consumers.
type Snapshot struct {
	Orders        []RawOrder
	Cancellations []Cancellation
	Trades        []Trade
}

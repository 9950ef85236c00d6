package engine

// InstrumentID, PerformerID, and TaskID are versioned handles: a generation
// counter in the high 32 bits and a pool index in the low 32 bits, so an
// operation on a destroyed-and-recycled slot is detectable without a map
// lookup (spec §9 "Global state" / the ID-generator note, grounded on the
// versioned-index pattern the teacher's pkg/framework/voice.Allocator used
// for its pitch→index maps).
type InstrumentID uint64

// PerformerID identifies a Performer the same way InstrumentID does.
type PerformerID uint64

// TaskID identifies a Task within the Performer that created it; it is only
// meaningful alongside the *Performer that returned it.
type TaskID uint64

func makeHandle(generation, index uint32) uint64 {
	return uint64(generation)<<32 | uint64(index)
}

func handleGeneration(id uint64) uint32 { return uint32(id >> 32) }
func handleIndex(id uint64) uint32      { return uint32(id) }

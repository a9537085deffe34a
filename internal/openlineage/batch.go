package openlineage

// AssembleBatch concatenates one invocation's events in strict order:
// START, test events, lineage events, terminal COMPLETE/FAIL. Internal
// collection order is preserved. Pure; performs no I/O.
//
// start may be nil when the START event was already delivered eagerly;
// the rest of the ordering is unchanged.
func AssembleBatch(start *RunEvent, testEvents, lineageEvents []RunEvent, terminal RunEvent) []RunEvent {
	batch := make([]RunEvent, 0, len(testEvents)+len(lineageEvents)+2)
	if start != nil {
		batch = append(batch, *start)
	}
	batch = append(batch, testEvents...)
	batch = append(batch, lineageEvents...)
	batch = append(batch, terminal)
	return batch
}

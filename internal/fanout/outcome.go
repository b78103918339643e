package fanout

// Outcome reports how far a single pipeline invocation got. The broadcast is
// the primary guarantee; everything after it is best-effort, so callers and
// tests need to see which steps completed rather than a single error.
type Outcome struct {
	Validated        bool
	Broadcast        bool
	ContextResolved  bool
	ClaimantResolved bool
	CodeGenerated    bool
	EmailSent        bool
	ClaimantNotified bool
	OthersNotified   int

	// Err holds the failure that stopped or degraded the invocation, if any.
	Err error
}

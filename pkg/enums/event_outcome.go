package enums

// EventOutcome records how the reconciler resolved an inbound signal in the
// payment event journal.
type EventOutcome string

const (
	EventOutcomeApplied    EventOutcome = "applied"
	EventOutcomeDuplicate  EventOutcome = "duplicate"
	EventOutcomeUnresolved EventOutcome = "unresolved"
	EventOutcomeConflict   EventOutcome = "conflict"
	EventOutcomeRejected   EventOutcome = "rejected"
)

// String implements fmt.Stringer.
func (o EventOutcome) String() string {
	return string(o)
}

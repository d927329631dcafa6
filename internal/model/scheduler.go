package model

// Scheduler orders timed actions on the simulated clock. The pipeline
// never touches the event queue directly; everything it defers goes
// through this interface, which keeps the components testable against a
// fake clock.
type Scheduler interface {
	// Now returns the current simulated time in seconds.
	Now() float64

	// Schedule runs fn after delay seconds of simulated time. A negative
	// delay is treated as zero.
	Schedule(delay float64, fn func())

	// ScheduleAt runs fn at the absolute simulated time t. A time in the
	// past fires at the current instant.
	ScheduleAt(t float64, fn func())
}

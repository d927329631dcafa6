package model

// Writer persists the flow snapshot of one finished run.
type Writer interface {
	// Write takes the run's full flow table and persists it. The
	// implementation decides format and destination.
	Write(snapshot *Snapshot) error

	// Name identifies the writer in logs.
	Name() string
}

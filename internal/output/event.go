package output

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - step.result
// - run.finished
//
// JSON mode remains an aggregate of Result values.
type Event struct {
	Type string `json:"type"`
	Op   string `json:"op,omitempty"`
	*Result
	Tag      string `json:"tag,omitempty"`
	Files    int    `json:"files,omitempty"`
	ExitCode int    `json:"exit_code,omitempty"`
}

func eventFromResult(r Result) Event {
	return Event{Type: "step.result", Op: r.Op, Result: &r}
}

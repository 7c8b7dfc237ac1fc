package output

// Status classifies the outcome of a single operation step.
type Status string

const (
	// StatusOK means the step completed (a file was combined, an artifact
	// was frozen, the script ran).
	StatusOK Status = "OK"
	// StatusSkipped means an optional step was skipped, typically because
	// an optional artifact does not exist.
	StatusSkipped Status = "SKIPPED"
	// StatusFail means the step failed.
	StatusFail Status = "FAIL"
)

// Result is the per-step record both operations emit: one per combined log
// file, one per frozen artifact, one for the script run itself.
type Result struct {
	Op      string `json:"op"`
	Item    string `json:"item"`
	Status  Status `json:"status"`
	Path    string `json:"path,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	Message string `json:"message,omitempty"`
}

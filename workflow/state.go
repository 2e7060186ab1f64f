package workflow

// State is the record threaded through a chat pipeline run.
type State struct {
	Text    string
	HCPName string
	Notes   string
	Summary string
}

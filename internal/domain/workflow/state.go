package workflow

// State is a status enum that can drive a state machine.
// Each entity (food, request, task) supplies its own closed set of statuses.
type State interface {
	~string
	IsValid() bool
	IsTerminal() bool
}

package contract

import "context"

// Agent is the single capability contract every task handler implements.
//
// Process must be total: input errors, missing entities, and upstream
// failures all come back as the error variant of Result, never as a panic
// or a Go error. The orchestrator relies on this to treat every dispatch
// as a plain value exchange.
type Agent interface {
	Process(ctx context.Context, input Input, flow Context) Result
	Capabilities() []string
	Description() string
}

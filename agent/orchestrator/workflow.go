package orchestrator

import (
	"context"

	contractx "github.com/datagora/datagora/agent/contract"
)

// StepResult pairs a workflow step's task name with its outcome.
type StepResult struct {
	Task   string
	Result contractx.Result
}

// WorkflowResult holds per-step results in execution order. Steps are
// independent units: there is no cross-step rollback, only the
// context-merge contract links them.
type WorkflowResult struct {
	steps []StepResult
}

// Steps returns the recorded step results in execution order.
func (w *WorkflowResult) Steps() []StepResult {
	return w.steps
}

// Result returns the most recent result recorded under a task name.
func (w *WorkflowResult) Result(task string) (contractx.Result, bool) {
	for i := len(w.steps) - 1; i >= 0; i-- {
		if w.steps[i].Task == task {
			return w.steps[i].Result, true
		}
	}
	return contractx.Result{}, false
}

// AsMap flattens the workflow outcome into the task-keyed mapping exposed
// to callers. Later steps reusing a task name overwrite earlier ones,
// matching map semantics; Steps preserves everything.
func (w *WorkflowResult) AsMap() map[string]map[string]any {
	out := make(map[string]map[string]any, len(w.steps))
	for _, step := range w.steps {
		out[step.Task] = step.Result.AsMap()
	}
	return out
}

// ExecuteWorkflow runs steps strictly in order, threading one context
// mapping through them. A step flagged UseResultAsContext first has the
// running context folded into its input (input keys win on conflict),
// and afterwards has its result folded into the context (result keys
// win). Step errors are recorded and execution continues: workflows are
// best effort, not transactional.
func (o *Orchestrator) ExecuteWorkflow(ctx context.Context, steps []contractx.WorkflowStep) *WorkflowResult {
	flow := contractx.Context{}
	out := &WorkflowResult{steps: make([]StepResult, 0, len(steps))}

	for _, step := range steps {
		input := step.Input
		if step.UseResultAsContext && len(flow) > 0 {
			merged := make(contractx.Input, len(input)+len(flow))
			for k, v := range input {
				merged[k] = v
			}
			for k, v := range flow {
				if _, exists := merged[k]; !exists {
					merged[k] = v
				}
			}
			input = merged
		}

		res := o.Dispatch(ctx, step.Task, input, flow)
		out.steps = append(out.steps, StepResult{Task: step.Task, Result: res})

		if step.UseResultAsContext {
			for k, v := range res.AsMap() {
				flow[k] = v
			}
		}
	}
	return out
}

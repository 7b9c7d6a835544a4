package contract

import "strings"

// Task identifies a capability in the orchestrator registry.
type Task string

const (
	TaskSearch         Task = "search"
	TaskRecommendation Task = "recommendation"
	TaskTransaction    Task = "transaction"
	TaskSupport        Task = "support"

	// TaskUnknown marks any name outside the registry. Dispatch still has
	// to handle it because task names arrive as arbitrary external strings.
	TaskUnknown Task = ""
)

// Tasks lists every registered task in registry order.
func Tasks() []Task {
	return []Task{TaskSearch, TaskRecommendation, TaskTransaction, TaskSupport}
}

// ParseTask maps an external task name onto the enumeration,
// case-insensitively.
func ParseTask(name string) Task {
	switch Task(strings.ToLower(strings.TrimSpace(name))) {
	case TaskSearch:
		return TaskSearch
	case TaskRecommendation:
		return TaskRecommendation
	case TaskTransaction:
		return TaskTransaction
	case TaskSupport:
		return TaskSupport
	default:
		return TaskUnknown
	}
}

// Input is the request payload handed to an agent. Required keys are
// capability-specific.
type Input map[string]any

// Context is the accumulated mapping carried between workflow steps.
type Context map[string]any

// WorkflowStep is one unit of a multi-step workflow. When
// UseResultAsContext is set, the running context is folded into the step's
// input before dispatch and the step's result is folded back into the
// context afterwards.
type WorkflowStep struct {
	Task               string `json:"task"`
	Input              Input  `json:"input_data"`
	UseResultAsContext bool   `json:"use_result_as_context"`
}

// String returns v's value under key when it is a string.
func (in Input) String(key string) string {
	v, _ := in[key].(string)
	return v
}

// Int64 coerces v's value under key into an int64. JSON payloads arrive
// with float64 numbers, direct callers tend to pass int.
func (in Input) Int64(key string) (int64, bool) {
	switch v := in[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Float64 coerces v's value under key into a float64.
func (in Input) Float64(key string) (float64, bool) {
	switch v := in[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// Strings coerces v's value under key into a string slice, accepting both
// []string and the []any shape produced by JSON decoding.
func (in Input) Strings(key string) []string {
	switch v := in[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

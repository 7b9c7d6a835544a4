// Package orchestrator routes task names to capabilities. The registry is
// built once at construction and never mutated; dispatch is safe for
// concurrent callers because agents hold no per-call state.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/datagora/datagora/agent/contract"
	llmx "github.com/datagora/datagora/agent/llm"
	promptx "github.com/datagora/datagora/agent/prompt"
	recommendx "github.com/datagora/datagora/agent/recommend"
	searchx "github.com/datagora/datagora/agent/search"
	supportx "github.com/datagora/datagora/agent/support"
	transactionx "github.com/datagora/datagora/agent/transaction"
	storex "github.com/datagora/datagora/store"
)

type Orchestrator struct {
	agents map[contractx.Task]contractx.Agent
	order  []contractx.Task
}

// New builds the full capability registry over the given store and
// generative client. A nil client is allowed: every agent degrades to its
// deterministic fallback.
func New(store storex.Store, client llmx.Client) *Orchestrator {
	prompts := promptx.LoadPromptSet()
	return NewWithAgents(map[contractx.Task]contractx.Agent{
		contractx.TaskSearch:         searchx.New(store, client, prompts),
		contractx.TaskRecommendation: recommendx.New(store, client, prompts),
		contractx.TaskTransaction:    transactionx.New(store),
		contractx.TaskSupport:        supportx.New(client, prompts),
	})
}

// NewWithAgents builds a registry from explicit agents, keeping the
// canonical task order for listings.
func NewWithAgents(agents map[contractx.Task]contractx.Agent) *Orchestrator {
	o := &Orchestrator{agents: make(map[contractx.Task]contractx.Agent, len(agents))}
	for _, task := range contractx.Tasks() {
		if agent, ok := agents[task]; ok && agent != nil {
			o.agents[task] = agent
			o.order = append(o.order, task)
		}
	}
	return o
}

// Dispatch resolves a task name case-insensitively and invokes its agent.
// Unknown names come back as an error result listing the registry; a
// panicking agent (a storage fault leaking through) is converted into an
// error result as the last line of defense.
func (o *Orchestrator) Dispatch(ctx context.Context, task string, input contractx.Input, flow contractx.Context) (res contractx.Result) {
	agent, ok := o.agents[contractx.ParseTask(task)]
	if !ok {
		return contractx.FailWith(fmt.Sprintf("Unknown task: %s", task), map[string]any{
			"available_tasks": o.taskNames(),
		})
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("task", task).Interface("panic", r).Msg("agent panicked")
			res = contractx.FailWith(fmt.Sprintf("%v", r), map[string]any{"task": task})
		}
	}()

	res = agent.Process(ctx, input, flow)
	if res.Failed() {
		log.Warn().Str("task", task).Str("error", res.Err).Msg("task failed")
	} else {
		log.Debug().Str("task", task).Msg("task executed")
	}
	return res
}

// ListCapabilities reports each registered agent's capability list.
func (o *Orchestrator) ListCapabilities() map[string][]string {
	out := make(map[string][]string, len(o.order))
	for _, task := range o.order {
		out[string(task)] = o.agents[task].Capabilities()
	}
	return out
}

// ListAgents reports the registered task names in registry order.
func (o *Orchestrator) ListAgents() []string {
	return o.taskNames()
}

func (o *Orchestrator) taskNames() []string {
	names := make([]string, len(o.order))
	for i, task := range o.order {
		names[i] = string(task)
	}
	return names
}

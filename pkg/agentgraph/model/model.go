// Package model defines a minimal interface for text-generation models
// and adapters that expose a model as a graph step or a tool.
//
// Provider implementations live in subpackages (anthropic, openai).
package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentgraph/agentgraph/pkg/agentgraph"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/memory"
	"github.com/agentgraph/agentgraph/pkg/agentgraph/tool"
)

// Info describes a model.
type Info struct {
	// Name is the provider-specific model identifier.
	Name string

	// Provider is the backing service, e.g. "anthropic" or "openai".
	Provider string
}

// Model generates a response to a conversation.
type Model interface {
	// Generate produces a completion for the given history. The last
	// message is the one being responded to. The system prompt may be
	// empty.
	Generate(ctx context.Context, system string, history []memory.Message) (string, error)

	// Info returns the model's identity.
	Info() Info
}

// Step returns a graph step that sends the state's input, prefixed by
// any conversation history, to the model and writes the response to the
// output field.
func Step(m Model, system string) agentgraph.StepFunc {
	return func(ctx agentgraph.Context, state agentgraph.State) (agentgraph.Update, error) {
		history := append(state.History(), memory.Message{
			Role:    memory.RoleUser,
			Content: state.Input(),
		})

		response, err := m.Generate(ctx, system, history)
		if err != nil {
			return nil, fmt.Errorf("%s generate: %w", m.Info().Provider, err)
		}

		return agentgraph.Update{agentgraph.KeyOutput: response}, nil
	}
}

// AsTool exposes the model as a tool taking a single "prompt" parameter.
// Generation is treated as repeatable.
func AsTool(name, description string, m Model) tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt to send to the model",
			},
		},
		"required": []string{"prompt"},
	}

	fn := func(ctx context.Context, params map[string]any) (string, error) {
		prompt, _ := params["prompt"].(string)
		return m.Generate(ctx, "", []memory.Message{
			{Role: memory.RoleUser, Content: prompt},
		})
	}

	return tool.NewFunctionTool(name, description, schema, fn, tool.WithIdempotent())
}

// Mock is a scripted model for tests and examples. Responses are
// returned in order; after the script is exhausted, calls fail.
type Mock struct {
	mu        sync.Mutex
	responses []string
	calls     int

	// Fn, when set, overrides the scripted responses.
	Fn func(ctx context.Context, system string, history []memory.Message) (string, error)
}

// NewMock returns a mock that replies with the given responses in order.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses}
}

func (m *Mock) Generate(ctx context.Context, system string, history []memory.Message) (string, error) {
	if m.Fn != nil {
		return m.Fn(ctx, system, history)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.responses) {
		return "", fmt.Errorf("mock: no response scripted for call %d", m.calls+1)
	}
	response := m.responses[m.calls]
	m.calls++
	return response, nil
}

func (m *Mock) Info() Info {
	return Info{Name: "mock", Provider: "mock"}
}

// Calls returns how many times Generate has been invoked.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

package agentgraph

import (
	"fmt"
	"sort"

	"github.com/agentgraph/agentgraph/pkg/agentgraph/memory"
)

// Well-known state field names. Input and Output exist in every schema;
// UserID and History are declared by conversation-aware graphs.
const (
	// KeyInput holds the caller's request text.
	KeyInput = "input"

	// KeyOutput holds the result text produced by the run.
	KeyOutput = "output"

	// KeyUserID holds the opaque user identifier for memory resolution.
	KeyUserID = "user_id"

	// KeyHistory holds the user's conversation as []memory.Message.
	KeyHistory = "history"
)

// Schema is the fixed field set of a graph's shared state. Steps may only
// write fields the schema declares; an update naming any other field
// fails the run with a SchemaError.
type Schema struct {
	fields map[string]struct{}
}

// NewSchema declares a schema with the given fields. KeyInput and
// KeyOutput are always included.
func NewSchema(fields ...string) Schema {
	s := Schema{fields: make(map[string]struct{}, len(fields)+2)}
	s.fields[KeyInput] = struct{}{}
	s.fields[KeyOutput] = struct{}{}
	for _, f := range fields {
		s.fields[f] = struct{}{}
	}
	return s
}

// BaseSchema declares the minimal schema: input and output only.
func BaseSchema() Schema {
	return NewSchema()
}

// ConversationSchema declares the memory-aware schema: input, output,
// user_id, and history.
func ConversationSchema() Schema {
	return NewSchema(KeyUserID, KeyHistory)
}

// With returns a copy of the schema with additional fields declared.
func (s Schema) With(fields ...string) Schema {
	out := NewSchema(fields...)
	for f := range s.fields {
		out.fields[f] = struct{}{}
	}
	return out
}

// Has reports whether the field is declared.
func (s Schema) Has(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// Fields returns the declared field names, sorted.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s.fields))
	for f := range s.fields {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// State is the shared state of one graph run. Each invocation owns its
// own State; concurrent runs over the same compiled graph never share
// one.
//
// Values are read through typed accessors; steps mutate state only by
// returning an Update.
type State map[string]any

// Update is the partial state change returned by a step. Fields not
// present in the update are preserved; fields present overwrite. Steps
// never delete fields.
type Update map[string]any

// Input returns the request text, or "" if unset.
func (s State) Input() string {
	return s.str(KeyInput)
}

// Output returns the result text, or "" if the terminal step has not
// produced it.
func (s State) Output() string {
	return s.str(KeyOutput)
}

// UserID returns the user identifier, or "" if unset.
func (s State) UserID() string {
	return s.str(KeyUserID)
}

// History returns the conversation loaded for this run, or nil.
func (s State) History() []memory.Message {
	if msgs, ok := s[KeyHistory].([]memory.Message); ok {
		return msgs
	}
	return nil
}

// Get returns the raw value for a field.
func (s State) Get(field string) (any, bool) {
	v, ok := s[field]
	return v, ok
}

// String returns the string value for a field, or "" if missing or not a
// string.
func (s State) String(field string) string {
	return s.str(field)
}

func (s State) str(field string) string {
	if v, ok := s[field].(string); ok {
		return v
	}
	return ""
}

// Clone returns an independent copy of the state. The history slice is
// copied so appends in one run never alias another; message values are
// immutable and shared.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		if msgs, ok := v.([]memory.Message); ok {
			copied := make([]memory.Message, len(msgs))
			copy(copied, msgs)
			out[k] = copied
			continue
		}
		out[k] = v
	}
	return out
}

// validate checks that every field of the state is declared.
func (s State) validate(schema Schema) error {
	for field := range s {
		if !schema.Has(field) {
			return &SchemaError{Field: field}
		}
	}
	return nil
}

// merge applies a step's partial update by field-wise overwrite. An
// undeclared field is a contract violation and fails rather than being
// silently stored.
func (s State) merge(schema Schema, step string, update Update) error {
	for field, value := range update {
		if !schema.Has(field) {
			return &SchemaError{Step: step, Field: field}
		}
		s[field] = value
	}
	return nil
}

// String renders the schema for error messages and debugging.
func (s Schema) String() string {
	return fmt.Sprintf("schema%v", s.Fields())
}

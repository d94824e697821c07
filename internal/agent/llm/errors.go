package llm

import "fmt"

// SerializationError reports prompt variables that could not be canonicalised.
// It is raised before any backend work happens.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("llm: variables not serializable: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// InvocationError reports a backend failure: timeout, provider error, or
// structured output that does not fit the result schema. Invocation errors are
// never cached; callers own the fallback.
type InvocationError struct {
	Err error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("llm: invocation failed: %v", e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

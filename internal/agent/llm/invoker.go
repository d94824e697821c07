package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
)

// Backend turns a rendered prompt plus a result schema into raw JSON output.
// Implementations: a queued-fixture backend for tests and the Gemini provider.
type Backend interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}

// Request carries everything a backend needs for one structured call.
type Request struct {
	SchemaName string
	Schema     json.RawMessage
	PromptID   string
	Prompt     string
}

// Validator lets result schemas enforce their own field constraints after
// decoding. Invoke rejects payloads whose Validate fails.
type Validator interface {
	Validate() error
}

// Invoker is the cached, provider-abstracted structured model gateway. A
// single instance is shared across concurrent turns.
type Invoker struct {
	backend Backend
	cache   *resultCache
}

func NewInvoker(backend Backend, cacheSize int) *Invoker {
	return &Invoker{
		backend: backend,
		cache:   newResultCache(cacheSize),
	}
}

// CacheLen reports the number of cached payloads.
func (inv *Invoker) CacheLen() int { return inv.cache.len() }

// Invoke resolves (T, promptText, variables, promptID) to a validated T. Cache
// hits return a fresh copy decoded from the stored payload, re-validated
// against T in case a different schema shares the key. Misses delegate to the
// backend outside the cache lock; failures surface as *InvocationError and are
// not cached.
func Invoke[T any](ctx context.Context, inv *Invoker, prompt string, variables map[string]any, promptID string) (T, error) {
	var zero T

	canonical, err := canonicalVariables(variables)
	if err != nil {
		return zero, &SerializationError{Err: err}
	}

	key := cacheKey{
		schemaName: schemaNameOf[T](),
		promptID:   promptID,
		digest:     hashHex([]byte(prompt)) + ":" + hashHex(canonical),
	}

	if payload, ok := inv.cache.lookup(key); ok {
		out, err := decodeValidated[T](payload)
		if err != nil {
			return zero, &InvocationError{Err: fmt.Errorf("cached payload incompatible with schema %s: %w", key.schemaName, err)}
		}
		return out, nil
	}

	payload, err := inv.backend.Generate(ctx, Request{
		SchemaName: key.schemaName,
		Schema:     schemaJSONOf[T](),
		PromptID:   promptID,
		Prompt:     prompt,
	})
	if err != nil {
		if _, ok := err.(*InvocationError); ok {
			return zero, err
		}
		return zero, &InvocationError{Err: err}
	}

	out, err := decodeValidated[T](payload)
	if err != nil {
		return zero, &InvocationError{Err: fmt.Errorf("malformed structured output for %s: %w", key.schemaName, err)}
	}

	inv.cache.store(key, payload)
	return out, nil
}

func decodeValidated[T any](payload json.RawMessage) (T, error) {
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, err
	}
	if v, ok := any(&out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return out, err
		}
	}
	return out, nil
}

// canonicalVariables produces an order-independent byte form of the prompt
// variables. encoding/json sorts map keys, which gives the canonical ordering
// for free; values that cannot be marshalled make the whole call fail before
// any network work.
func canonicalVariables(variables map[string]any) ([]byte, error) {
	if len(variables) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(variables)
}

func hashHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func schemaNameOf[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

var schemaCache sync.Map // reflect.Type -> json.RawMessage

// schemaJSONOf reflects T into a JSON schema for backends that instruct the
// model to emit conforming output. Fixture backends ignore it.
func schemaJSONOf[T any]() json.RawMessage {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(json.RawMessage)
	}
	reflector := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	var zero T
	schema := reflector.Reflect(&zero)
	b, err := json.Marshal(schema)
	if err != nil {
		b = []byte(`{}`)
	}
	schemaCache.Store(t, json.RawMessage(b))
	return b
}

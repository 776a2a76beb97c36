// Package localinvoke implements the in-process tool invoker (C5): it binds
// a JSON argument object to a target callable's parameters via reflection
// and mapstructure, then invokes it.
package localinvoke

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/actionloop/agentcore/pkg/stream"
	"github.com/actionloop/agentcore/pkg/toolkit"
)

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

// Invoker implements toolkit.Invoker for toolkit.Local tools.
type Invoker struct{}

// New returns a ready-to-use local invoker.
func New() *Invoker { return &Invoker{} }

// Invoke parses argumentsJSON into a name→value map, binds it to def's
// target callable parameters per def.Bindings, invokes the callable, and
// renders its return value as the observation string.
func (iv *Invoker) Invoke(ctx context.Context, def *toolkit.ToolDefinition, argumentsJSON string, _ *toolkit.RequestContext, _ stream.Sink) (string, error) {
	if def.LocalTarget == nil || def.LocalTarget.Func == nil {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: fmt.Errorf("no local target registered")}
	}

	args := map[string]any{}
	if argumentsJSON != "" {
		if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
			return "", &toolkit.InvalidArgumentsError{Tool: def.Name, Message: "arguments is not a JSON object", Err: err}
		}
	}

	fn := reflect.ValueOf(def.LocalTarget.Func)
	fnType := fn.Type()
	if fnType.Kind() != reflect.Func {
		return "", &toolkit.ToolExecutionError{Tool: def.Name, Err: fmt.Errorf("local target is not a function")}
	}

	callArgs, err := bindArguments(def, fnType, args)
	if err != nil {
		return "", err
	}

	// Pass ctx as the leading parameter if the callable wants one.
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		callArgs = append([]reflect.Value{reflect.ValueOf(ctx)}, callArgs...)
	}

	results := fn.Call(callArgs)
	return renderResults(def.Name, results)
}

// bindArguments resolves one reflect.Value per non-context parameter of fn,
// in declaration order, applying envelope unwrapping when the callable has
// exactly one complex parameter and the JSON object doesn't name it.
func bindArguments(def *toolkit.ToolDefinition, fnType reflect.Type, args map[string]any) ([]reflect.Value, error) {
	bindings := def.Bindings
	paramOffset := 0
	if fnType.NumIn() > 0 && fnType.In(0) == contextType {
		paramOffset = 1
	}
	numBound := fnType.NumIn() - paramOffset

	if isEnvelopeUnwrapCandidate(bindings, fnType, paramOffset, numBound, args) {
		val, err := convertValue(args, fnType.In(paramOffset), def.Name, bindings[0].Name)
		if err != nil {
			return nil, err
		}
		return []reflect.Value{val}, nil
	}

	out := make([]reflect.Value, numBound)
	for _, b := range bindings {
		paramIndex := paramOffset + b.Position
		if paramIndex >= fnType.NumIn() {
			continue
		}
		paramType := fnType.In(paramIndex)

		raw, present := args[b.Name]
		if !present {
			if b.Required {
				return nil, &toolkit.InvalidArgumentsError{Tool: def.Name, Field: b.Name, Message: "required argument missing"}
			}
			out[b.Position] = reflect.Zero(paramType)
			continue
		}

		val, err := convertValue(raw, paramType, def.Name, b.Name)
		if err != nil {
			return nil, err
		}
		out[b.Position] = val
	}
	return out, nil
}

// isEnvelopeUnwrapCandidate reports whether the callable has exactly one
// complex-type parameter and the incoming JSON does not contain a key
// matching that parameter's binding name. In that case the whole JSON
// object becomes that parameter's value.
func isEnvelopeUnwrapCandidate(bindings []toolkit.ParamBinding, fnType reflect.Type, paramOffset, numBound int, args map[string]any) bool {
	if numBound != 1 || len(bindings) != 1 {
		return false
	}
	paramType := fnType.In(paramOffset)
	underlying := paramType
	for underlying.Kind() == reflect.Ptr {
		underlying = underlying.Elem()
	}
	if underlying.Kind() != reflect.Struct && underlying.Kind() != reflect.Map {
		return false
	}
	_, present := args[bindings[0].Name]
	return !present
}

// convertValue decodes raw (as produced by encoding/json.Unmarshal into
// any) into a new value of target, using a weakly typed mapstructure
// decoder (json tag names) for every target type, primitives included.
func convertValue(raw any, target reflect.Type, tool, field string) (reflect.Value, error) {
	ptr := reflect.New(target)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           ptr.Interface(),
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return reflect.Value{}, &toolkit.InvalidArgumentsError{Tool: tool, Field: field, Message: "building decoder", Err: err}
	}
	if err := decoder.Decode(raw); err != nil {
		return reflect.Value{}, &toolkit.InvalidArgumentsError{Tool: tool, Field: field, Message: "type conversion failed", Err: err}
	}
	return ptr.Elem(), nil
}

// renderResults turns a callable's []reflect.Value return into the
// observation string: an error return surfaces as ToolExecutionError, a
// string return passes through, anything else is JSON-encoded.
func renderResults(tool string, results []reflect.Value) (string, error) {
	var errVal reflect.Value
	var dataVals []reflect.Value
	for _, r := range results {
		if r.Type().Implements(errorType) {
			errVal = r
			continue
		}
		dataVals = append(dataVals, r)
	}

	if errVal.IsValid() && !errVal.IsNil() {
		return "", &toolkit.ToolExecutionError{Tool: tool, Err: errVal.Interface().(error)}
	}

	switch len(dataVals) {
	case 0:
		return "", nil
	case 1:
		v := dataVals[0]
		if v.Kind() == reflect.String {
			return v.String(), nil
		}
		out, err := json.Marshal(v.Interface())
		if err != nil {
			return "", &toolkit.ToolExecutionError{Tool: tool, Err: err}
		}
		return string(out), nil
	default:
		values := make([]any, len(dataVals))
		for i, v := range dataVals {
			values[i] = v.Interface()
		}
		out, err := json.Marshal(values)
		if err != nil {
			return "", &toolkit.ToolExecutionError{Tool: tool, Err: err}
		}
		return string(out), nil
	}
}

package tools

import (
	"context"
	"fmt"
	"strconv"
)

// Invoke runs one tool call: locate the tool, validate and coerce the
// arguments against its declared parameters, execute the handler, and
// classify the result into a tagged Outcome.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) Outcome {
	tool := r.Get(name)
	if tool == nil {
		return Fatal(&ErrToolUnavailable{ToolName: name})
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(tool, args); err != nil {
		return Fatal(err)
	}

	value, err := tool.Handler(ctx, args)
	if err != nil {
		if re, ok := AsRetry(err); ok {
			return NewRetryHint(re.Hint)
		}
		return Fatal(fmt.Errorf("tool %q: %w", name, err))
	}
	return Success(value)
}

// validateArgs checks args against the tool's JSON-Schema parameters:
// required fields must be present, and declared property types must
// match. Stringified numerics are coerced in place, since models
// routinely quote numbers.
func validateArgs(tool *Tool, args map[string]any) error {
	properties, _ := tool.Parameters["properties"].(map[string]any)

	for _, field := range requiredFields(tool.Parameters) {
		if _, ok := args[field]; !ok {
			return &ValidationError{Tool: tool.Name, Field: field, Reason: "required field missing"}
		}
	}

	for field, raw := range args {
		spec, ok := properties[field].(map[string]any)
		if !ok {
			continue // undeclared extras pass through untouched
		}
		declared, _ := spec["type"].(string)

		coerced, err := coerce(raw, declared)
		if err != nil {
			return &ValidationError{Tool: tool.Name, Field: field, Reason: err.Error()}
		}
		args[field] = coerced
	}

	return nil
}

// requiredFields reads the schema's required list, tolerating both
// []string (our own construction) and []any (round-tripped JSON).
func requiredFields(parameters map[string]any) []string {
	switch req := parameters["required"].(type) {
	case []string:
		return req
	case []any:
		out := make([]string, 0, len(req))
		for _, v := range req {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// coerce checks that value matches the declared JSON-Schema type,
// converting where a lossless conversion exists.
func coerce(value any, declared string) (any, error) {
	switch declared {
	case "", "any":
		return value, nil
	case "string":
		if s, ok := value.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("expected string, got %T", value)
	case "number":
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("expected number, got %q", v)
			}
			return f, nil
		}
		return nil, fmt.Errorf("expected number, got %T", value)
	case "integer":
		switch v := value.(type) {
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("expected integer, got %v", v)
			}
			return v, nil
		case int:
			return float64(v), nil
		case string:
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected integer, got %q", v)
			}
			return float64(n), nil
		}
		return nil, fmt.Errorf("expected integer, got %T", value)
	case "boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("expected boolean, got %T", value)
	case "object":
		if m, ok := value.(map[string]any); ok {
			return m, nil
		}
		return nil, fmt.Errorf("expected object, got %T", value)
	case "array":
		if a, ok := value.([]any); ok {
			return a, nil
		}
		return nil, fmt.Errorf("expected array, got %T", value)
	}
	return value, nil
}

// StringArg extracts a string argument. Validation has already run, so
// a missing optional field simply yields the zero value.
func StringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

// FloatArg extracts a numeric argument.
func FloatArg(args map[string]any, key string) float64 {
	v, _ := args[key].(float64)
	return v
}

// IntArg extracts an integer argument.
func IntArg(args map[string]any, key string) int {
	v, _ := args[key].(float64)
	return int(v)
}

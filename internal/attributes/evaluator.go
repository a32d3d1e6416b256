package attributes

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.opentelemetry.io/otel/attribute"

	"coroviz/internal/config"
	"coroviz/internal/hierarchy"
)

// Evaluator handles compilation and evaluation of custom attribute
// expressions.
type Evaluator struct {
	customAttrs   []config.CustomAttribute
	compiledExprs []*vm.Program
}

func exprEnv() map[string]interface{} {
	return map[string]interface{}{
		"id":          "",
		"label":       "",
		"scope":       "",
		"job":         "",
		"dispatcher":  "",
		"thread":      "",
		"state":       "",
		"activeNs":    uint64(0),
		"suspendedNs": uint64(0),
		"children":    0,
		"suspensions": 0,
	}
}

// NewEvaluator creates a new attribute evaluator.
// It pre-compiles all custom attribute expressions for efficiency.
func NewEvaluator(customAttrs []config.CustomAttribute) (*Evaluator, error) {
	compiledExprs := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := expr.Compile(attr.Expression, expr.Env(exprEnv()))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression for attribute %q: %w", attr.Name, err)
		}
		compiledExprs[i] = program
	}

	return &Evaluator{
		customAttrs:   customAttrs,
		compiledExprs: compiledExprs,
	}, nil
}

// Evaluate runs every custom attribute expression against one coroutine's
// state. This is a pure function over the immutable node; a failing
// expression is skipped, never fatal.
func (e *Evaluator) Evaluate(node *hierarchy.CoroutineNode) []attribute.KeyValue {
	if e == nil || len(e.customAttrs) == 0 || node == nil {
		return nil
	}

	env := map[string]interface{}{
		"id":          node.ID,
		"label":       node.Label,
		"scope":       node.ScopeID,
		"job":         node.JobID,
		"dispatcher":  node.DispatcherName,
		"thread":      node.CurrentThreadName,
		"state":       string(node.State),
		"activeNs":    node.ActiveTime,
		"suspendedNs": node.SuspendedTime,
		"children":    len(node.ChildrenIDs),
		"suspensions": len(node.SuspensionPoints),
	}

	var attrs []attribute.KeyValue
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.compiledExprs[i], env)
		if err != nil {
			continue
		}

		// Map results expand into one attribute per key with dot notation.
		outputValue := reflect.ValueOf(output)
		if outputValue.Kind() == reflect.Map {
			for _, key := range outputValue.MapKeys() {
				keyStr := sanitizeAttributeName(fmt.Sprintf("%v", key.Interface()))
				value := outputValue.MapIndex(key).Interface()
				attrs = append(attrs, attribute.String(customAttr.Name+"."+keyStr, fmt.Sprint(value)))
			}
			continue
		}
		attrs = append(attrs, attribute.String(customAttr.Name, fmt.Sprint(output)))
	}
	return attrs
}

// sanitizeAttributeName replaces non-alphanumeric characters with
// underscores so attribute names stay safe for OpenTelemetry.
func sanitizeAttributeName(name string) string {
	result := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result[i] = c
		} else {
			result[i] = '_'
		}
	}
	return string(result)
}

package translate

import (
	"fmt"
	"strings"
	"time"

	"github.com/robert-malhotra/landsat-lst/internal/stac"
)

// MatchFilter evaluates a CQL2-JSON filter against an item.
//
// Supported operators:
//   - "=", "<>", "<", "<=", ">", ">=" : comparisons with a property on the left
//   - "in" : value in list
//   - "and", "or", "not" : logical combinations
//   - "isNull" : property absent
//
// Properties resolve against item properties, plus "id" and "collection".
// Timestamps on the right are written {"timestamp": "..."}; they compare
// against the RFC 3339 item datetime.
func MatchFilter(filter any, item *stac.Item) (bool, error) {
	if filter == nil {
		return true, nil
	}
	expr, ok := filter.(map[string]any)
	if !ok {
		return false, fmt.Errorf("%w: filter must be a JSON object", ErrUnsupportedFilter)
	}
	return evalExpression(expr, item)
}

func evalExpression(expr map[string]any, item *stac.Item) (bool, error) {
	op, ok := expr["op"].(string)
	if !ok {
		return false, fmt.Errorf("%w: missing or non-string 'op' field", ErrUnsupportedFilter)
	}
	args, ok := expr["args"].([]any)
	if !ok {
		return false, fmt.Errorf("%w: 'args' must be an array", ErrUnsupportedFilter)
	}

	switch op = strings.ToLower(op); op {
	case "and", "or":
		if len(args) == 0 {
			return false, fmt.Errorf("%w: '%s' requires at least one argument", ErrUnsupportedFilter, op)
		}
		for _, arg := range args {
			sub, ok := arg.(map[string]any)
			if !ok {
				return false, fmt.Errorf("%w: '%s' arguments must be filter expressions", ErrUnsupportedFilter, op)
			}
			match, err := evalExpression(sub, item)
			if err != nil {
				return false, err
			}
			if op == "and" && !match {
				return false, nil
			}
			if op == "or" && match {
				return true, nil
			}
		}
		return op == "and", nil

	case "not":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: 'not' requires exactly 1 argument", ErrUnsupportedFilter)
		}
		sub, ok := args[0].(map[string]any)
		if !ok {
			return false, fmt.Errorf("%w: 'not' argument must be a filter expression", ErrUnsupportedFilter)
		}
		match, err := evalExpression(sub, item)
		return !match && err == nil, err

	case "isnull":
		if len(args) != 1 {
			return false, fmt.Errorf("%w: 'isNull' requires exactly 1 argument", ErrUnsupportedFilter)
		}
		name, err := extractPropertyName(args[0])
		if err != nil {
			return false, err
		}
		return propertyValue(item, name) == nil, nil

	case "in":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: 'in' operator requires exactly 2 arguments", ErrUnsupportedFilter)
		}
		name, err := extractPropertyName(args[0])
		if err != nil {
			return false, err
		}
		list, ok := args[1].([]any)
		if !ok {
			return false, fmt.Errorf("%w: second argument of 'in' must be an array", ErrUnsupportedFilter)
		}
		left := propertyValue(item, name)
		for _, v := range list {
			c, ok, err := compare(left, v)
			if err != nil {
				return false, err
			}
			if ok && c == 0 {
				return true, nil
			}
		}
		return false, nil

	case "=", "<>", "<", "<=", ">", ">=":
		if len(args) != 2 {
			return false, fmt.Errorf("%w: '%s' operator requires exactly 2 arguments", ErrUnsupportedFilter, op)
		}
		name, err := extractPropertyName(args[0])
		if err != nil {
			return false, err
		}
		c, ok, err := compare(propertyValue(item, name), args[1])
		if err != nil || !ok {
			return false, err
		}
		switch op {
		case "=":
			return c == 0, nil
		case "<>":
			return c != 0, nil
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}

	default:
		return false, fmt.Errorf("%w: operator '%s' not supported", ErrUnsupportedFilter, op)
	}
}

// extractPropertyName extracts the property name from a property reference
// Expected format: {"property": "name"}
func extractPropertyName(arg any) (string, error) {
	propMap, ok := arg.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: property reference must be an object", ErrUnsupportedFilter)
	}
	name, ok := propMap["property"].(string)
	if !ok {
		return "", fmt.Errorf("%w: missing or non-string 'property' field", ErrUnsupportedFilter)
	}
	return name, nil
}

func propertyValue(item *stac.Item, name string) any {
	switch name {
	case "id":
		return item.Id
	case "collection":
		return item.Collection
	default:
		return item.Properties[name]
	}
}

// compare orders an item value against a filter literal. ok is false when
// the item value is missing, which never matches.
func compare(left, right any) (c int, ok bool, err error) {
	if left == nil {
		return 0, false, nil
	}

	if ts, isTS := right.(map[string]any); isTS {
		raw, has := ts["timestamp"].(string)
		if !has {
			raw, has = ts["date"].(string)
		}
		if !has {
			return 0, false, fmt.Errorf("%w: unsupported literal %v", ErrUnsupportedFilter, ts)
		}
		rt, err := parseLiteralTime(raw)
		if err != nil {
			return 0, false, err
		}
		lt, err := ParseSTACTime(left)
		if err != nil {
			return 0, false, err
		}
		return lt.Compare(rt), true, nil
	}

	switch r := right.(type) {
	case string:
		l, isStr := left.(string)
		if !isStr {
			return 0, false, nil
		}
		return strings.Compare(strings.ToLower(l), strings.ToLower(r)), true, nil
	case float64:
		l, isNum := toNumber(left)
		if !isNum {
			return 0, false, nil
		}
		switch {
		case l < r:
			return -1, true, nil
		case l > r:
			return 1, true, nil
		}
		return 0, true, nil
	case bool:
		l, isBool := left.(bool)
		if !isBool {
			return 0, false, nil
		}
		if l == r {
			return 0, true, nil
		}
		return 1, true, nil
	default:
		return 0, false, fmt.Errorf("%w: unsupported literal of type %T", ErrUnsupportedFilter, right)
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func parseLiteralTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, s)
	}
	return t, nil
}

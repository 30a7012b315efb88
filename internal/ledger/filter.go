package ledger

import (
	"encoding/json"
	"reflect"
	"time"
)

// Match evaluates the filters against a JSON object in process. Backends
// without a query language use it.
func Match(data json.RawMessage, filters []Filter) bool {
	if len(filters) == 0 {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	for _, f := range filters {
		if !f.matches(fields) {
			return false
		}
	}
	return true
}

func (f Filter) matches(fields map[string]any) bool {
	got, ok := fields[f.Field]
	if !ok || got == nil {
		return false
	}

	switch f.Op {
	case OpEq:
		return reflect.DeepEqual(got, normalize(f.Value))
	case OpBefore:
		limit, ok := f.Value.(time.Time)
		if !ok {
			return false
		}
		s, ok := got.(string)
		if !ok {
			return false
		}
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return false
		}
		return !ts.After(limit)
	default:
		return false
	}
}

// normalize round-trips v through JSON so it compares equal to decoded fields.
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

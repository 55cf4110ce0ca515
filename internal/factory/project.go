package factory

import (
	"encoding/json"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
)

// project keeps the selected fields of each item. _id survives an include
// list unless explicitly excluded.
func project(items []any, p *query.Projection) ([]any, error) {
	if p == nil || len(p.Fields) == 0 {
		return items, nil
	}

	selected := make(map[string]bool, len(p.Fields))
	for _, f := range p.Fields {
		selected[f] = true
	}

	out := make([]any, len(items))
	for i, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, err
		}
		for name := range fields {
			keep := selected[name] != p.Exclude
			if !p.Exclude && name == schema.FieldID {
				keep = true
			}
			if !keep {
				delete(fields, name)
			}
		}
		out[i] = fields
	}
	return out, nil
}

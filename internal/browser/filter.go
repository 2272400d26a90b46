package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slopewatch/slopewatch-go/internal/api"
)

// Filter narrows a record slice by table and free-text search, then
// truncates to limit. The search is a case-insensitive substring match
// over each record's serialized JSON, so it finds values in any field
// and field names themselves. Empty table or search mean "no filter";
// limit <= 0 means unlimited. Filter is pure: the input slice is never
// modified and the output preserves input order.
func Filter(records []api.Record, table, search string, limit int) []api.Record {
	search = strings.ToLower(strings.TrimSpace(search))

	out := make([]api.Record, 0, len(records))
	for _, r := range records {
		if table != "" && r[TableKey] != table {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(serialize(r)), search) {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// serialize renders a record for substring matching. Map key order does
// not matter for containment, but encoding/json sorts keys anyway, so
// the rendering is stable.
func serialize(r api.Record) string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", r)
	}
	return string(data)
}

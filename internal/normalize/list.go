package normalize

// Conventional list keys checked around the endpoint-specific one
const (
	ItemsKey       = "items"
	LegacyItemsKey = "Items"
)

// ExtractList locates the record list inside an unwrapped payload. The payload
// itself wins when it is an array; otherwise items, primaryKey, and Items are
// tried in that order. Anything else yields an empty, non-nil list.
func ExtractList(data any, primaryKey string) []any {
	switch v := data.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{ItemsKey, primaryKey, LegacyItemsKey} {
			if key == "" {
				continue
			}
			if list, ok := v[key].([]any); ok {
				return list
			}
		}
	}
	return []any{}
}

// ExtractRecords extracts the list under primaryKey and normalizes each object
// in it. Entries that are not objects are dropped.
func ExtractRecords(data any, primaryKey string) []Record {
	list := ExtractList(data, primaryKey)
	records := make([]Record, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, NormalizeItem(obj))
	}
	return records
}

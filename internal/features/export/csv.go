package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ToCSV serializes rows to RFC-4180 CSV. The header row comes from the
// columns list; when columns is empty it is inferred from the first row's
// keys (sorted, so output is stable). Rows are joined by \n. Empty input
// produces an empty byte slice with no header.
func ToCSV(rows []map[string]any, columns []string) ([]byte, error) {
	if len(rows) == 0 {
		return []byte{}, nil
	}

	headers := columns
	if len(headers) == 0 {
		for k := range rows[0] {
			headers = append(headers, k)
		}
		sort.Strings(headers)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, err
	}

	for _, rec := range rows {
		row := make([]string, 0, len(headers))
		for _, col := range headers {
			row = append(row, CellString(rec[col]))
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// CellString coerces a record value to its exported text form. Nil becomes
// the empty string; lookup objects render their display name.
func CellString(val any) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case primitive.ObjectID:
		return v.Hex()
	case map[string]interface{}:
		if name, ok := v["name"]; ok {
			return fmt.Sprintf("%v", name)
		}
		return fmt.Sprintf("%v", v)
	case primitive.M:
		if name, ok := v["name"]; ok {
			return fmt.Sprintf("%v", name)
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

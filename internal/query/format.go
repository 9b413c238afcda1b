package query

import (
	"fmt"
	"strconv"
	"time"
)

// FormatValue renders one cell for text exports; NULL becomes "".
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case time.Time:
		return typed.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(typed)
	}
}

func FormatRow(row []any) []string {
	out := make([]string, len(row))
	for i, value := range row {
		out[i] = FormatValue(value)
	}
	return out
}

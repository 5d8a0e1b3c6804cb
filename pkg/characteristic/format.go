package characteristic

import (
	"fmt"
	"strconv"
)

// formatValue renders a decoded value the way it appears in the one-line form
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strconv.Quote(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

package repos

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// jsonUpdate serializes a typed sub-document for a column-level
// update, which bypasses the model serializer.
func jsonUpdate(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

package resolvers

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// Date is the GraphQL Date scalar. It is written as an RFC 3339 timestamp in
// UTC with millisecond precision.
type Date struct {
	time.Time
}

func (Date) ImplementsGraphQLType(name string) bool {
	return name == "Date"
}

// UnmarshalGraphQL accepts RFC 3339 strings with or without fractional
// seconds, plain YYYY-MM-DD dates and millisecond epochs.
func (d *Date) UnmarshalGraphQL(input interface{}) error {
	switch v := input.(type) {
	case string:
		t, err := parseDateString(v)
		if err != nil {
			return err
		}
		d.Time = t
	case int32:
		d.Time = time.UnixMilli(int64(v)).UTC()
	case int64:
		d.Time = time.UnixMilli(v).UTC()
	case int:
		d.Time = time.UnixMilli(int64(v)).UTC()
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid Date value %v", v)
		}
		d.Time = time.UnixMilli(int64(v)).UTC()
	default:
		return fmt.Errorf("wrong type for Date: %T", input)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(dateLayout))
}

func parseDateString(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid Date %q", s)
}

package model

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"orm-mirror/internal/diagnostic"
	"orm-mirror/internal/field"
)

// Serialize renders stored or in-memory values as JSON-compatible data
// keyed by field name. Every value is decoded first, so two records holding
// the same data serialize identically whichever path loaded them.
func (m *Model) Serialize(env field.Env, values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(m.fields))

	for _, f := range m.Columns() {
		name := f.Options().Name

		v, err := f.Decode(env, values[name])
		if err != nil {
			return nil, err
		}

		out[name], err = render(env, f, v)
		if err != nil {
			return nil, diagnostic.WithField(err, name)
		}
	}

	return out, nil
}

func render(env field.Env, f field.Field, v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, int64, float64, string:
		return x, nil
	case decimal.Decimal:
		return x.StringFixed(int32(f.Options().DecimalPlaces)), nil
	case civil.Date:
		return x.String(), nil
	case civil.Time:
		return fmt.Sprintf("%02d:%02d:%02d.%06d", x.Hour, x.Minute, x.Second, x.Nanosecond/1000), nil
	case civil.DateTime:
		return x.String(), nil
	case time.Time:
		loc := env.Location
		if loc == nil {
			loc = time.UTC
		}

		return x.In(loc).Format(time.RFC3339Nano), nil
	case time.Duration:
		return field.FormatDuration(x), nil
	case uuid.UUID:
		return x.String(), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(x), nil
	default:
		if _, ok := f.(*field.JSON); ok {
			return x, nil
		}

		return nil, diagnostic.NotSupported("serialized type", fmt.Sprintf("%T", v))
	}
}

package utils

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// FlexDate accepts the date shapes clients actually send:
// a plain date ("2006-01-02"), an RFC3339 timestamp, or the document-store
// wrapper {"seconds":N,"nanos":N}. Whatever arrives is normalized to a
// native time.Time in UTC before it is stored or compared.
type FlexDate struct {
	time.Time
}

type timestampWrapper struct {
	Seconds *int64 `json:"seconds"`
	Nanos   int64  `json:"nanos"`
}

func (d *FlexDate) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		d.Time = time.Time{}
		return nil
	}

	if strings.HasPrefix(s, "{") {
		var w timestampWrapper
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		if w.Seconds == nil {
			return errors.New("timestamp wrapper missing seconds")
		}
		d.Time = time.Unix(*w.Seconds, w.Nanos).UTC()
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, str); err == nil {
			d.Time = t.UTC()
			return nil
		}
	}
	return errors.New("invalid date value: " + str)
}

func (d FlexDate) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Time.UTC().Format(time.RFC3339))
}

func (d FlexDate) IsZero() bool {
	return d.Time.IsZero()
}

package ingest

import (
	"fmt"
	"io"

	"github.com/valyala/fastjson"
)

var (
	jsonTimestampKeys = []string{"timestamp", "TimeCreated", "Date and Time", "time"}
	jsonSourceKeys    = []string{"source", "Source", "ProviderName", "Provider"}
	jsonCodeKeys      = []string{"code", "EventID", "Event ID", "Id"}
)

// decodeJSON reads either one JSON array of event objects or a stream of
// whitespace-separated objects (NDJSON). Non-object values are skipped.
func decodeJSON(r io.Reader) ([]Raw, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	var (
		sc  fastjson.Scanner
		out []Raw
	)
	sc.InitBytes(data)
	for sc.Next() {
		v := sc.Value()
		switch v.Type() {
		case fastjson.TypeArray:
			for _, item := range v.GetArray() {
				if item.Type() == fastjson.TypeObject {
					out = append(out, rawFromJSON(item))
				}
			}
		case fastjson.TypeObject:
			out = append(out, rawFromJSON(v))
		}
	}
	if err := sc.Error(); err != nil {
		return out, fmt.Errorf("json: %w", err)
	}
	return out, nil
}

func rawFromJSON(v *fastjson.Value) Raw {
	return Raw{
		Timestamp: firstText(v, jsonTimestampKeys, "SystemTime"),
		Source:    firstText(v, jsonSourceKeys, "Name"),
		Code:      firstText(v, jsonCodeKeys, "#text"),
	}
}

// firstText returns the first key present as a string or number. Object
// values (the XML-to-JSON shape) are looked into for nested.
func firstText(v *fastjson.Value, keys []string, nested string) string {
	for _, k := range keys {
		f := v.Get(k)
		if f == nil {
			continue
		}
		if f.Type() == fastjson.TypeObject {
			f = f.Get(nested)
			if f == nil {
				continue
			}
		}
		if s, ok := scalar(f); ok {
			return s
		}
	}
	return ""
}

func scalar(v *fastjson.Value) (string, bool) {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes()), true
	case fastjson.TypeNumber:
		return v.String(), true
	}
	return "", false
}

package schema

import (
	"reflect"
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		expr string
		want Path
	}{
		{"event.startTime", Path{{Kind: KeyStep, Key: "event"}, {Kind: KeyStep, Key: "startTime"}}},
		{"tags", Path{{Kind: KeyStep, Key: "tags"}}},
		{"entities[0].value", Path{{Kind: KeyStep, Key: "entities"}, {Kind: IndexStep, Index: 0}, {Kind: KeyStep, Key: "value"}}},
		{"a[2]", Path{{Kind: KeyStep, Key: "a"}, {Kind: IndexStep, Index: 2}}},
		{"", nil},
	}

	for _, tt := range tests {
		if got := ParsePath(tt.expr); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParsePath(%q) = %#v, want %#v", tt.expr, got, tt.want)
		}
	}
}

func TestPath_Resolve(t *testing.T) {
	record := map[string]interface{}{
		"event": map[string]interface{}{
			"arn":        "arn:aws:health:us-east-1::event/EC2/X",
			"statusCode": "open",
		},
		"eventMetadata": map[string]string{
			"deprecated_versions": "1.19",
		},
		"entities": []interface{}{
			map[string]interface{}{"value": "i-0abc"},
			map[string]interface{}{"value": "i-0def"},
		},
		"count": 3,
	}

	tests := []struct {
		name   string
		expr   string
		want   interface{}
		wantOK bool
	}{
		{"nested key", "event.arn", "arn:aws:health:us-east-1::event/EC2/X", true},
		{"top-level scalar", "count", 3, true},
		{"string map", "eventMetadata.deprecated_versions", "1.19", true},
		{"index", "entities[1].value", "i-0def", true},
		{"missing key", "event.region", nil, false},
		{"missing branch", "eventDescription.latestDescription", nil, false},
		{"through scalar", "count.value", nil, false},
		{"index out of range", "entities[5].value", nil, false},
		{"negative index", "entities[-1].value", nil, false},
		{"index into map", "event[0]", nil, false},
		{"non-numeric index", "entities[x].value", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePath(tt.expr).Resolve(record)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.expr, ok, tt.wantOK)
			}
			if ok && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

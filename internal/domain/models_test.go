package domain

import (
	"reflect"
	"testing"
)

func TestStageIndex(t *testing.T) {
	tests := []struct {
		stage    string
		expected int
	}{
		{"01", 0},
		{"04A", 3},
		{"06", 7},
		{"4A", -1},
		{"", -1},
		{"banana", -1},
	}

	for _, tt := range tests {
		if got := StageIndex(tt.stage); got != tt.expected {
			t.Errorf("StageIndex(%q) = %d, want %d", tt.stage, got, tt.expected)
		}
	}
}

func TestRemainingStages(t *testing.T) {
	tests := []struct {
		name     string
		stage    string
		expected []string
	}{
		{"first stage keeps everything", "01", []string{"01", "02", "03", "04A", "04B", "05A", "05B", "06"}},
		{"mid pipeline", "04A", []string{"04A", "04B", "05A", "05B", "06"}},
		{"last stage", "06", []string{"06"}},
		{"unknown stage starts from the beginning", "weird", []string{"01", "02", "03", "04A", "04B", "05A", "05B", "06"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemainingStages(tt.stage); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("RemainingStages(%q) = %v, want %v", tt.stage, got, tt.expected)
			}
		})
	}
}

func TestParseServiceLine(t *testing.T) {
	if sl, ok := ParseServiceLine("MW"); !ok || sl != ServiceLineMW {
		t.Errorf("ParseServiceLine(MW) = %q, %v", sl, ok)
	}
	if _, ok := ParseServiceLine("mw"); ok {
		t.Error("ParseServiceLine(mw) should not parse, codes are uppercase")
	}
	if _, ok := ParseServiceLine("XYZ"); ok {
		t.Error("ParseServiceLine(XYZ) should not parse")
	}
}

func TestIsResourcePlanned(t *testing.T) {
	if !ServiceLineMW.IsResourcePlanned() || !ServiceLineITOC.IsResourcePlanned() {
		t.Error("MW and ITOC are resource planned")
	}
	if ServiceLineCES.IsResourcePlanned() {
		t.Error("CES is not resource planned")
	}
}

func TestParseResourceStatus(t *testing.T) {
	tests := []struct {
		in       string
		expected ResourceStatus
		ok       bool
	}{
		{"Predicted", StatusPredicted, true},
		{"Forecast", StatusForecast, true},
		{"Planned", StatusPlanned, true},
		{"predicted", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseResourceStatus(tt.in)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("ParseResourceStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.expected, tt.ok)
		}
	}
}

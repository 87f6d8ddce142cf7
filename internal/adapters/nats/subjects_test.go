package natsadapter

import "testing"

func TestSubjects(t *testing.T) {
	tests := []struct {
		id    string
		fix   string
		frame string
	}{
		{"bus-42", "marker.fix.bus-42", "marker.frame.bus-42"},
		{"line.3 bus", "marker.fix.line_3_bus", "marker.frame.line_3_bus"},
		{"a*b>c", "marker.fix.a_b_c", "marker.frame.a_b_c"},
		{"", "marker.fix._", "marker.frame._"},
	}
	for _, tt := range tests {
		if got := FixSubject(tt.id); got != tt.fix {
			t.Errorf("FixSubject(%q) = %q, want %q", tt.id, got, tt.fix)
		}
		if got := FrameSubject(tt.id); got != tt.frame {
			t.Errorf("FrameSubject(%q) = %q, want %q", tt.id, got, tt.frame)
		}
	}
}

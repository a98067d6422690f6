package domain

import (
	"testing"
)

// TestValidTransition verifies the lecture status state machine
func TestValidTransition(t *testing.T) {
	testCases := []struct {
		name string
		from LectureStatus
		to   LectureStatus
		want bool
	}{
		{name: "queued to parsing", from: LectureStatusQueued, to: LectureStatusParsing, want: true},
		{name: "queued to failed", from: LectureStatusQueued, to: LectureStatusFailed, want: true},
		{name: "parsing to explaining", from: LectureStatusParsing, to: LectureStatusExplaining, want: true},
		{name: "parsing to failed", from: LectureStatusParsing, to: LectureStatusFailed, want: true},
		{name: "explaining to complete", from: LectureStatusExplaining, to: LectureStatusComplete, want: true},
		{name: "explaining to failed", from: LectureStatusExplaining, to: LectureStatusFailed, want: true},
		{name: "failed to parsing on retry", from: LectureStatusFailed, to: LectureStatusParsing, want: true},
		{name: "queued to explaining skips parsing", from: LectureStatusQueued, to: LectureStatusExplaining, want: false},
		{name: "queued to complete skips pipeline", from: LectureStatusQueued, to: LectureStatusComplete, want: false},
		{name: "complete is terminal", from: LectureStatusComplete, to: LectureStatusParsing, want: false},
		{name: "failed cannot complete directly", from: LectureStatusFailed, to: LectureStatusComplete, want: false},
		{name: "parsing cannot return to queued", from: LectureStatusParsing, to: LectureStatusQueued, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ValidTransition(tc.from, tc.to); got != tc.want {
				t.Errorf("ValidTransition(%s, %s): got %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

// TestErrorDetailsValue verifies that a zero record serializes to NULL and a
// populated one to JSON
func TestErrorDetailsValue(t *testing.T) {
	zero := ErrorDetails{}
	v, err := zero.Value()
	if err != nil {
		t.Fatalf("Value on zero record: %v", err)
	}
	if v != nil {
		t.Errorf("Zero record should serialize to nil, got %v", v)
	}

	details := ErrorDetails{Service: "ingestion", Error: "boom"}
	v, err = details.Value()
	if err != nil {
		t.Fatalf("Value on populated record: %v", err)
	}
	s, ok := v.(string)
	if !ok {
		t.Fatalf("Value type: got %T, want string", v)
	}
	if s != `{"service":"ingestion","error":"boom"}` {
		t.Errorf("Serialized form: got %s", s)
	}
}

// TestErrorDetailsScan verifies decoding from NULL, []byte, and string values
func TestErrorDetailsScan(t *testing.T) {
	var details ErrorDetails

	if err := details.Scan(nil); err != nil {
		t.Fatalf("Scan(nil): %v", err)
	}
	if !details.IsZero() {
		t.Errorf("Scan(nil) should yield zero record, got %+v", details)
	}

	if err := details.Scan([]byte(`{"service":"ingestion","error":"boom"}`)); err != nil {
		t.Fatalf("Scan([]byte): %v", err)
	}
	if details.Service != "ingestion" || details.Error != "boom" {
		t.Errorf("Scan([]byte) result: %+v", details)
	}

	details = ErrorDetails{}
	if err := details.Scan(`{"service":"ingestion","error":"later"}`); err != nil {
		t.Fatalf("Scan(string): %v", err)
	}
	if details.Error != "later" {
		t.Errorf("Scan(string) result: %+v", details)
	}

	if err := details.Scan(42); err == nil {
		t.Error("Scan(int) should fail")
	}
}

// TestErrorDetailsRoundTrip verifies that Value output scans back unchanged
func TestErrorDetailsRoundTrip(t *testing.T) {
	original := ErrorDetails{Service: "ingestion", Error: "failed to process slide 2: constraint violation"}
	v, err := original.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}

	var decoded ErrorDetails
	if err := decoded.Scan(v); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if decoded != original {
		t.Errorf("Round trip mismatch: got %+v, want %+v", decoded, original)
	}
}

package collector

import (
	"testing"
	"time"
)

func TestThresholds_NilPasses(t *testing.T) {
	var th *Thresholds
	res := th.Check(sampleReport())
	if !res.Passed || len(res.Results) != 0 {
		t.Errorf("nil thresholds should pass without results, got %+v", res)
	}
}

func TestThresholds_OutageBounds(t *testing.T) {
	th := &Thresholds{Outage: &DurationThresholds{
		P50: 5 * time.Second,
		P99: 9 * time.Second,
	}}
	res := th.Check(sampleReport())

	if res.Passed {
		t.Fatal("p99 of 10s should violate a 9s bound")
	}
	if len(res.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res.Results))
	}
	if !res.Results[0].Passed {
		t.Errorf("p50 equal to its bound should pass: %+v", res.Results[0])
	}
	v := res.Violations()
	if len(v) != 1 || v[0].Name != "outage.p99" {
		t.Errorf("expected only outage.p99 to fail, got %+v", v)
	}
	if v[0].Actual != "10.000s" {
		t.Errorf("unexpected actual %q", v[0].Actual)
	}
}

func TestThresholds_SkipsOutageChecksWithoutData(t *testing.T) {
	r := sampleReport()
	r.Outages = ComputeStats(nil)
	th := &Thresholds{Outage: &DurationThresholds{Max: time.Second}}

	if res := th.Check(r); !res.Passed || len(res.Results) != 0 {
		t.Errorf("expected no outage checks on empty data, got %+v", res)
	}
}

func TestThresholds_FailureRate(t *testing.T) {
	// 25 failures out of 1000 operations = 2.5%
	pass := (&Thresholds{FailureRate: "5%"}).Check(sampleReport())
	if !pass.Passed {
		t.Errorf("2.5%% should be within 5%%: %+v", pass.Results)
	}

	fail := (&Thresholds{FailureRate: "1%"}).Check(sampleReport())
	if fail.Passed {
		t.Error("2.5% should violate 1%")
	}
	if fail.Results[0].Actual != "2.50%" {
		t.Errorf("unexpected actual %q", fail.Results[0].Actual)
	}
}

func TestThresholds_InvalidFailureRateFails(t *testing.T) {
	res := (&Thresholds{FailureRate: "five"}).Check(sampleReport())
	if res.Passed || len(res.Results) != 1 {
		t.Fatalf("malformed rate should fail the check, got %+v", res)
	}
	if res.Results[0].Passed || res.Results[0].Threshold != "five" {
		t.Errorf("unexpected result %+v", res.Results[0])
	}
}

func TestThresholds_Validate(t *testing.T) {
	tests := []struct {
		name    string
		th      *Thresholds
		wantErr bool
	}{
		{"nil", nil, false},
		{"empty", &Thresholds{}, false},
		{"percentage", &Thresholds{FailureRate: "2.5%"}, false},
		{"padded percentage", &Thresholds{FailureRate: " 5% "}, false},
		{"word", &Thresholds{FailureRate: "five"}, true},
		{"missing percent sign", &Thresholds{FailureRate: "5"}, true},
		{"not a number", &Thresholds{FailureRate: "x%"}, true},
		{"positive bounds", &Thresholds{Outage: &DurationThresholds{P99: time.Second}}, false},
		{"negative bound", &Thresholds{Outage: &DurationThresholds{Max: -time.Second}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.th.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

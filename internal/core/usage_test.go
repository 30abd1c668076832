package core

import "testing"

func TestIsPremiumExhausted(t *testing.T) {
	tests := []struct {
		name  string
		used  int
		limit int
		want  bool
	}{
		{"96 percent", 480, 500, false},
		{"99 percent", 495, 500, false},
		{"exactly at limit", 500, 500, true},
		{"over limit", 512, 500, true},
		{"zero limit", 10, 0, false},
		{"unlimited sentinel", Unlimited, Unlimited, false},
		{"free tier", 50, 50, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPremiumExhausted(tt.used, tt.limit); got != tt.want {
				t.Errorf("IsPremiumExhausted(%d, %d) = %v, want %v", tt.used, tt.limit, got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		used, limit, want int
	}{
		{480, 500, 96},
		{495, 500, 99},
		{1, 3, 33},
		{2, 3, 67},
		{10, 0, 0},
		{60, 50, 120},
	}
	for _, tt := range tests {
		if got := Percentage(tt.used, tt.limit); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.used, tt.limit, got, tt.want)
		}
	}
}

func TestBillingModelLimits(t *testing.T) {
	if got := BillingFree.Limits().PremiumLimit; got != 50 {
		t.Errorf("free premium limit = %d, want 50", got)
	}
	if got := BillingPro.Limits().StandardLimit; got != Unlimited {
		t.Errorf("pro standard limit = %d, want unlimited", got)
	}
	if got := BillingModel("bogus").Limits(); got != BillingFree.Limits() {
		t.Errorf("unknown model limits = %+v, want free defaults", got)
	}
}

func TestParseBillingModel(t *testing.T) {
	tests := []struct {
		in   string
		want BillingModel
		ok   bool
	}{
		{"pro", BillingPro, true},
		{" Business ", BillingBusiness, true},
		{"usage_based", BillingUsageBased, true},
		{"Usage-Based", BillingUsageBased, true},
		{"enterprise", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseBillingModel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseBillingModel(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

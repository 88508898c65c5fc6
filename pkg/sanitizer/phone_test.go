package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{
			name:   "valid E.164 format",
			input:  "+886912345678",
			region: "TW",
			want:   "+886912345678",
		},
		{
			name:   "local mobile with spaces",
			input:  "0912 345 678",
			region: "TW",
			want:   "+886912345678",
		},
		{
			name:   "local mobile with dashes",
			input:  "0912-345-678",
			region: "TW",
			want:   "+886912345678",
		},
		{
			name:   "international US number",
			input:  "+1 (650) 253-0000",
			region: "TW",
			want:   "+16502530000",
		},
		{
			name:   "leading and trailing spaces",
			input:  "  +886912345678  ",
			region: "TW",
			want:   "+886912345678",
		},
		{
			name:   "empty region falls back to default",
			input:  "0912345678",
			region: "",
			want:   "+886912345678",
		},
		{
			name:   "empty string",
			input:  "",
			region: "TW",
			want:   "",
		},
		{
			name:   "only whitespace",
			input:  "   ",
			region: "TW",
			want:   "",
		},
		{
			name:   "garbage",
			input:  "not-a-phone",
			region: "TW",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.input, tt.region)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	first := NormalizePhone("0912 345 678", "TW")
	second := NormalizePhone(first, "TW")
	if first != second {
		t.Errorf("NormalizePhone is not idempotent: %q then %q", first, second)
	}
}

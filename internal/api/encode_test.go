package api

import "testing"

func TestRawQueryValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Laksa", "Laksa"},
		{"Hainanese chicken rice", "Hainanese%20chicken%20rice"},
		{"AC/DC", "AC/DC"},
		{"a=b&c", "a=b&c"},
		{"C#", "C%23"},
		{`"quoted"`, "%22quoted%22"},
		{"<tag>", "%3Ctag%3E"},
		{"O'Brien", "O%27Brien"},
		{"Zürich", "Z%C3%BCrich"},
		{"tab\there", "tab%09here"},
		{"100%", "100%"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := rawQueryValue(tt.in); got != tt.want {
				t.Errorf("rawQueryValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

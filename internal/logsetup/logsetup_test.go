package logsetup

import (
	"log"
	"testing"
)

func TestFlags(t *testing.T) {
	tests := []struct {
		spec string
		want int
	}{
		{"", log.LstdFlags},
		{"none", 0},
		{" MICRO ", log.LstdFlags | log.Lmicroseconds},
		{"short", log.LstdFlags | log.Lshortfile},
		{"bogus", log.LstdFlags},
	}

	for _, tt := range tests {
		if got := Flags(tt.spec); got != tt.want {
			t.Errorf("Flags(%q) = %d, want %d", tt.spec, got, tt.want)
		}
	}
}

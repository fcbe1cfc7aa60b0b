package entitlements

import "testing"

func TestIsStaff(t *testing.T) {
	tests := []struct {
		level int
		want  bool
	}{
		{0, false},
		{1, false},
		{2, true},
		{5, true},
	}

	for _, tt := range tests {
		if got := IsStaff(tt.level); got != tt.want {
			t.Errorf("IsStaff(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestLevelForTier(t *testing.T) {
	tests := []struct {
		tierLevel int
		want      int
	}{
		{0, LevelUser},
		{-1, LevelUser},
		{1, LevelSubscriber},
		{3, LevelSubscriber},
	}

	for _, tt := range tests {
		if got := LevelForTier(tt.tierLevel); got != tt.want {
			t.Errorf("LevelForTier(%d) = %d, want %d", tt.tierLevel, got, tt.want)
		}
	}
}

func TestTierDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		tierLevel int
		want      string
	}{
		{"Gold", 2, "Gold"},
		{"", 2, "Free"},
		{"Gold", 0, "Free"},
		{"", 0, "Free"},
	}

	for _, tt := range tests {
		if got := TierDisplayName(tt.name, tt.tierLevel); got != tt.want {
			t.Errorf("TierDisplayName(%q, %d) = %q, want %q", tt.name, tt.tierLevel, got, tt.want)
		}
	}
}

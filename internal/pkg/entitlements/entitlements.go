package entitlements

// Access levels stored on the user record. 0 is an ordinary account, 1 is
// held by paying subscribers, anything at or above StaffLevel is granted
// manually and is never touched by billing synchronization.
const (
	LevelUser       = 0
	LevelSubscriber = 1
	StaffLevel      = 2
)

// IsStaff reports whether the given access level is exempt from billing.
func IsStaff(accessLevel int) bool {
	return accessLevel >= StaffLevel
}

// LevelForTier maps a purchased tier level to the access level it confers.
// Tiers confer the subscriber level; they never reach staff territory.
func LevelForTier(tierLevel int) int {
	if tierLevel > 0 {
		return LevelSubscriber
	}
	return LevelUser
}

// TierDisplayName returns a human-readable tier label for rendering.
func TierDisplayName(tierName string, tierLevel int) string {
	if tierLevel <= 0 || tierName == "" {
		return "Free"
	}
	return tierName
}

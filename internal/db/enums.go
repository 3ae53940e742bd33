package db

// Session status bits.
const (
	BitOn  = 1
	BitOff = 0
)

// Record lifecycle statuses shared across entities. Soft-deleted rows keep
// StatusDeleted and are excluded from default queries by the repository.
const (
	StatusActive      = "active"
	StatusDeactivated = "deactivated"
	StatusDeleted     = "deleted"
	StatusArchived    = "archived"
	StatusSuspended   = "suspended"
)

// Password lifecycle statuses. At most one active password exists per email.
const (
	PasswordActive      = "active"
	PasswordDeactivated = "deactivated"
	PasswordCompromised = "compromised"
	PasswordBlacklisted = "blacklisted"
)

// Genders accepted at signup.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "others"
)

package errors

import "errors"

func (d Definition) Error() string {
	return d.Message
}

// Definition carries a business error code and its default message.
type Definition struct {
	Code    string
	Message string
}

// Check-in admission errors. Codes double as persisted reject reasons,
// so they must stay stable.
var (
	NotJoined        = Definition{Code: "not_joined", Message: "Participant has not joined the challenge"}
	MissingWakeTime  = Definition{Code: "missing_wake_time", Message: "Fixed wake mode requires a wake time"}
	OutsideWindow    = Definition{Code: "outside_window", Message: "Tap is outside the wake window"}
	PenaltyMode      = Definition{Code: "penalty_mode", Message: "Report deadline passed, penalty sweep takes over"}
	AlreadyVoiceDay  = Definition{Code: "already_voice_today", Message: "A report was already accepted today"}
	AntiCheatExpired = Definition{Code: "anticheat_expired", Message: "Anti-cheat challenge expired"}
	AntiCheatFailed  = Definition{Code: "anticheat_failed", Message: "Anti-cheat attempts exhausted"}
	InvalidAnswer    = Definition{Code: "invalid_answer", Message: "Answer is not a number"}
	NoPendingCheck   = Definition{Code: "no_pending_check", Message: "No pending anti-cheat challenge"}
)

// Participation errors.
var (
	WakeTimeNotAllowed = Definition{Code: "WAKE_TIME_NOT_ALLOWED", Message: "Wake time must be a whole hour between 05:00 and 09:00"}
	InvalidTimezone    = Definition{Code: "INVALID_TIMEZONE", Message: "Timezone must be GMT±HH:MM or a zone identifier"}
	InvalidWakeMode    = Definition{Code: "INVALID_WAKE_MODE", Message: "Wake mode must be fixed or flex"}
	BuddyPairConflict  = Definition{Code: "BUDDY_PAIR_CONFLICT", Message: "Participant already holds an active buddy pair"}
)

// Configuration errors: surfaced to users as "currently unavailable",
// alerted to operators via logs.
var (
	NoActiveChallenge = Definition{Code: "NO_ACTIVE_CHALLENGE", Message: "No challenge is currently active"}
	ChallengeDisabled = Definition{Code: "CHALLENGE_DISABLED", Message: "Challenge is currently disabled"}
)

// Auth and admin errors.
var (
	Unauthorized       = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	AdminSecretInvalid = Definition{Code: "ADMIN_SECRET_INVALID", Message: "Admin secret invalid"}
	InvalidUserID      = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	TooManyRequests    = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
)

// Data integrity errors: fatal to the single request or sweep item,
// reported, not retried.
var (
	UserNotFound          = Definition{Code: "USER_NOT_FOUND", Message: "User not found"}
	ParticipationNotFound = Definition{Code: "PARTICIPATION_NOT_FOUND", Message: "Participation not found"}
	CheckinNotFound       = Definition{Code: "CHECKIN_NOT_FOUND", Message: "Check-in not found"}
)

// Token plumbing errors.
var (
	ErrTokenGeneratorNotInitialized = errors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = errors.New("unexpected signing method")
	ErrInvalidToken                 = errors.New("invalid token")
	ErrInvalidTokenClaims           = errors.New("invalid token claims")
	ErrInvalidTokenType             = errors.New("invalid token type")
	ErrUserIDNotFound               = errors.New("user id not found in claims")
)

// IsUserError reports whether the definition belongs to the admission
// reject-reason family (lowercase codes). User errors are surfaced
// verbatim and never logged as failures.
func IsUserError(err error) bool {
	def, ok := err.(Definition)
	if !ok {
		return false
	}
	return def.Code != "" && def.Code[0] >= 'a' && def.Code[0] <= 'z'
}

// Lookup provides code-based access for response mapping.
var Lookup = map[string]Definition{
	NotJoined.Code:             NotJoined,
	MissingWakeTime.Code:       MissingWakeTime,
	OutsideWindow.Code:         OutsideWindow,
	PenaltyMode.Code:           PenaltyMode,
	AlreadyVoiceDay.Code:       AlreadyVoiceDay,
	AntiCheatExpired.Code:      AntiCheatExpired,
	AntiCheatFailed.Code:       AntiCheatFailed,
	InvalidAnswer.Code:         InvalidAnswer,
	NoPendingCheck.Code:        NoPendingCheck,
	WakeTimeNotAllowed.Code:    WakeTimeNotAllowed,
	InvalidTimezone.Code:       InvalidTimezone,
	InvalidWakeMode.Code:       InvalidWakeMode,
	BuddyPairConflict.Code:     BuddyPairConflict,
	NoActiveChallenge.Code:     NoActiveChallenge,
	ChallengeDisabled.Code:     ChallengeDisabled,
	Unauthorized.Code:          Unauthorized,
	AdminSecretInvalid.Code:    AdminSecretInvalid,
	InvalidUserID.Code:         InvalidUserID,
	TooManyRequests.Code:       TooManyRequests,
	UserNotFound.Code:          UserNotFound,
	ParticipationNotFound.Code: ParticipationNotFound,
	CheckinNotFound.Code:       CheckinNotFound,
}

// Get returns the Definition for a code, or a generic placeholder.
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

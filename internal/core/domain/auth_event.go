package domain

import "time"

// Strategy names exposed to the router.
const (
	StrategyRegister      = "register"
	StrategyLogin         = "login"
	StrategyResetPassword = "resetPassword"
	StrategyGithub        = "github"
)

// AuthEvent is an audit record of one strategy pass.
type AuthEvent struct {
	Strategy   string
	Outcome    string
	Email      string
	UserID     string // empty unless accepted
	Reason     string
	OccurredAt time.Time
}

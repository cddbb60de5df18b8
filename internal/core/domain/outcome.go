package domain

// OutcomeKind is the terminal state of a single strategy pass.
type OutcomeKind int

const (
	OutcomeAccepted OutcomeKind = iota + 1
	OutcomeRejected
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeRejected:
		return "rejected"
	case OutcomeFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome is the result of a strategy.
//
//   - Accepted carries the authenticated User.
//   - Rejected carries the business reason in Err (one of the domain sentinels)
//     and Reason mirrors its message.
//   - Failed carries a generic Reason safe to show to clients; Err holds the
//     underlying cause and is meant for logs only.
type Outcome struct {
	Kind   OutcomeKind
	User   *User
	Reason string
	Err    error
}

func Accept(u *User) Outcome {
	return Outcome{Kind: OutcomeAccepted, User: u}
}

func Reject(reason error) Outcome {
	return Outcome{Kind: OutcomeRejected, Reason: reason.Error(), Err: reason}
}

func Fail(reason string, cause error) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: reason, Err: cause}
}

func (o Outcome) Accepted() bool { return o.Kind == OutcomeAccepted }
func (o Outcome) Rejected() bool { return o.Kind == OutcomeRejected }
func (o Outcome) Failed() bool   { return o.Kind == OutcomeFailed }

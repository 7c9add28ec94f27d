package model

// TransferKind labels a value movement in the journal.
type TransferKind string

const (
	TransferDeposit    TransferKind = "DEPOSIT"
	TransferSetupFee   TransferKind = "SETUP_FEE"
	TransferComputeFee TransferKind = "COMPUTE_FEE"
	TransferWithdrawal TransferKind = "WITHDRAWAL"
)

// Transfer records one value movement between identities. Destinations are
// always the vault, the fee recipient, or the owner — never the agent.
type Transfer struct {
	Kind   TransferKind `json:"kind"`
	From   Identity     `json:"from"`
	To     Identity     `json:"to"`
	Amount uint64       `json:"amount"`
}

// Event is one append-only notification record emitted by a successful
// transition. Events are observability only: the engine never reads them
// back and they never gate subsequent operations.
type Event interface {
	EventType() string
	Session() SessionID
}

// SessionCreated is emitted by initialize.
type SessionCreated struct {
	SessionID    SessionID `json:"session_id"`
	Owner        Identity  `json:"owner"`
	Agent        Identity  `json:"agent"`
	DurationDays uint16    `json:"duration_days"`
}

func (e SessionCreated) EventType() string  { return "SessionCreated" }
func (e SessionCreated) Session() SessionID { return e.SessionID }

// Deposited is emitted by the single successful deposit.
type Deposited struct {
	SessionID      SessionID `json:"session_id"`
	Amount         uint64    `json:"amount"`
	Fee            uint64    `json:"fee"`
	TradingBalance uint64    `json:"trading_balance"`
	ExpiresAt      int64     `json:"expires_at"`
}

func (e Deposited) EventType() string  { return "Deposited" }
func (e Deposited) Session() SessionID { return e.SessionID }

// SwapExecuted is emitted when the agent's trade through a whitelisted venue
// is authorized.
type SwapExecuted struct {
	SessionID        SessionID `json:"session_id"`
	Agent            Identity  `json:"agent"`
	Venue            Identity  `json:"venue"`
	AmountIn         uint64    `json:"amount_in"`
	MinimumAmountOut uint64    `json:"minimum_amount_out"`
	Timestamp        int64     `json:"timestamp"`
}

func (e SwapExecuted) EventType() string  { return "SwapExecuted" }
func (e SwapExecuted) Session() SessionID { return e.SessionID }

// ComputeFeeDeducted is emitted by the maintenance crank debit.
type ComputeFeeDeducted struct {
	SessionID        SessionID `json:"session_id"`
	Fee              uint64    `json:"fee"`
	RemainingBalance uint64    `json:"remaining_balance"`
}

func (e ComputeFeeDeducted) EventType() string  { return "ComputeFeeDeducted" }
func (e ComputeFeeDeducted) Session() SessionID { return e.SessionID }

// SessionPaused is emitted when the owner pauses trading.
type SessionPaused struct {
	SessionID SessionID `json:"session_id"`
}

func (e SessionPaused) EventType() string  { return "SessionPaused" }
func (e SessionPaused) Session() SessionID { return e.SessionID }

// SessionResumed is emitted when the owner resumes trading.
type SessionResumed struct {
	SessionID SessionID `json:"session_id"`
}

func (e SessionResumed) EventType() string  { return "SessionResumed" }
func (e SessionResumed) Session() SessionID { return e.SessionID }

// Withdrawn is emitted when the owner reclaims the remaining balance.
type Withdrawn struct {
	SessionID SessionID `json:"session_id"`
	Amount    uint64    `json:"amount"`
	Owner     Identity  `json:"owner"`
}

func (e Withdrawn) EventType() string  { return "Withdrawn" }
func (e Withdrawn) Session() SessionID { return e.SessionID }

// SessionExpired is emitted when a session passes its deadline or exhausts
// its balance. The remaining balance stays claimable via withdraw.
type SessionExpired struct {
	SessionID        SessionID `json:"session_id"`
	RemainingBalance uint64    `json:"remaining_balance"`
}

func (e SessionExpired) EventType() string  { return "SessionExpired" }
func (e SessionExpired) Session() SessionID { return e.SessionID }

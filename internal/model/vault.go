package model

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Identity is an opaque participant identifier (a wallet address or service
// principal). The engine only ever compares identities for equality.
type Identity string

// IsZero reports whether the identity is unset.
func (i Identity) IsZero() bool { return i == "" }

// SessionID is the 16-byte session identifier chosen at creation. Together
// with the owner identity it permanently addresses a vault.
type SessionID [16]byte

// NewSessionID returns a random session identifier.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseSessionID parses the canonical UUID string form.
func ParseSessionID(s string) (SessionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return SessionID{}, fmt.Errorf("parse session id: %w", err)
	}
	return SessionID(u), nil
}

func (s SessionID) String() string { return uuid.UUID(s).String() }

func (s SessionID) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *SessionID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := ParseSessionID(raw)
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// VaultStatus is the vault's lifecycle state.
type VaultStatus uint8

const (
	StatusPending VaultStatus = iota // created, awaiting deposit
	StatusActive                     // funded, agent may trade
	StatusPaused                     // owner paused trading
	StatusExpired                    // duration ended or balance depleted
	StatusWithdrawn                  // owner withdrew all funds
)

var statusNames = map[VaultStatus]string{
	StatusPending:   "PENDING",
	StatusActive:    "ACTIVE",
	StatusPaused:    "PAUSED",
	StatusExpired:   "EXPIRED",
	StatusWithdrawn: "WITHDRAWN",
}

func (s VaultStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
}

// Terminal reports whether no operation may transition out of s.
func (s VaultStatus) Terminal() bool {
	return s == StatusExpired || s == StatusWithdrawn
}

func (s VaultStatus) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *VaultStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for st, name := range statusNames {
		if name == raw {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown vault status %q", raw)
}

// Vault is the sole persistent entity: one trading session's escrow record.
// Owner, agent, fee recipient, session id, and duration are fixed at
// creation; timestamps are integer seconds since epoch.
type Vault struct {
	Owner            Identity    `json:"owner"`
	Agent            Identity    `json:"agent"`
	FeeRecipient     Identity    `json:"fee_recipient"`
	SessionID        SessionID   `json:"session_id"`
	Balance          uint64      `json:"balance"`
	FeeCollected     uint64      `json:"fee_collected"`
	ComputeFeesPaid  uint64      `json:"compute_fees_paid"`
	DurationDays     uint16      `json:"duration_days"`
	Status           VaultStatus `json:"status"`
	CreatedAt        int64       `json:"created_at"`
	FundedAt         int64       `json:"funded_at"`
	ExpiresAt        int64       `json:"expires_at"`
	LastFeeDeduction int64       `json:"last_fee_deduction"`
}

// Address is the identity escrowed funds move through. The agent identity
// never appears here or as any transfer destination.
func (v *Vault) Address() Identity {
	return Identity("vault:" + v.SessionID.String())
}

// Clone returns an independent copy of the record.
func (v *Vault) Clone() *Vault {
	c := *v
	return &c
}

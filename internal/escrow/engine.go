package escrow

import (
	"context"
	"log"
	"sync"
	"time"

	"AgentEscrow/internal/model"
	"AgentEscrow/internal/store"
)

// Session parameters, in smallest value units. Not configurable.
const (
	// FeeBPS is the setup fee in basis points (2.5%).
	FeeBPS uint64 = 250
	// DailyComputeFee is debited per elapsed day by the maintenance crank.
	DailyComputeFee uint64 = 10_000_000
	// MinDeposit is the smallest accepted funding amount.
	MinDeposit uint64 = 100_000_000
	// FeeInterval is the minimum seconds between compute fee deductions.
	FeeInterval int64 = 86_400

	secondsPerDay int64 = 86_400
)

// Notifier pushes a committed event to external observers. Delivery failures
// are logged, never propagated: notifications are observability only.
type Notifier interface {
	Notify(ctx context.Context, evt model.Event) error
}

// Engine is the vault lifecycle state machine. Each operation snapshots the
// clock once, re-validates caller identity and vault status against the
// stored record, computes the new state, and commits state, transfers, and
// the notification event as one atomic unit. A failed guard aborts with a
// specific error and zero mutation.
type Engine struct {
	mu       sync.Mutex
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

// NewEngine creates an engine over the given store. notifier may be nil.
func NewEngine(st store.Store, notifier Notifier) *Engine {
	return &Engine{store: st, notifier: notifier, now: time.Now}
}

// Initialize creates a new Pending vault owned by the caller. Owner, agent,
// fee recipient, session id, and duration are fixed for the vault's life.
func (e *Engine) Initialize(ctx context.Context, owner model.Identity, sessionID model.SessionID, durationDays uint16, agent, feeRecipient model.Identity) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().Unix()
	v := &model.Vault{
		Owner:        owner,
		Agent:        agent,
		FeeRecipient: feeRecipient,
		SessionID:    sessionID,
		DurationDays: durationDays,
		Status:       model.StatusPending,
		CreatedAt:    now,
	}
	evt := model.SessionCreated{
		SessionID:    sessionID,
		Owner:        owner,
		Agent:        agent,
		DurationDays: durationDays,
	}
	if err := e.store.Create(ctx, v, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return v.Clone(), nil
}

// Deposit funds a Pending vault exactly once. The setup fee is skimmed to
// the fee recipient and the remainder becomes the trading balance; the
// expiry deadline is computed here and never recomputed.
func (e *Engine) Deposit(ctx context.Context, caller, owner model.Identity, sessionID model.SessionID, amount uint64, feeRecipient model.Identity) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().Unix()
	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if amount < MinDeposit {
		return nil, ErrDepositTooSmall
	}
	if v.Status != model.StatusPending {
		return nil, ErrInvalidStatus
	}
	if v.Owner != caller {
		return nil, ErrUnauthorized
	}
	if v.FeeRecipient != feeRecipient {
		return nil, ErrInvalidFeeRecipient
	}

	fee, tradingBalance, err := setupFee(amount)
	if err != nil {
		return nil, err
	}
	expiresAt, err := expiryAt(now, v.DurationDays)
	if err != nil {
		return nil, err
	}

	next := v.Clone()
	next.Balance = tradingBalance
	next.FeeCollected = fee
	next.Status = model.StatusActive
	next.FundedAt = now
	next.LastFeeDeduction = now
	next.ExpiresAt = expiresAt

	transfers := []model.Transfer{
		{Kind: model.TransferDeposit, From: caller, To: next.Address(), Amount: tradingBalance},
		{Kind: model.TransferSetupFee, From: caller, To: v.FeeRecipient, Amount: fee},
	}
	evt := model.Deposited{
		SessionID:      sessionID,
		Amount:         amount,
		Fee:            fee,
		TradingBalance: tradingBalance,
		ExpiresAt:      expiresAt,
	}
	if err := e.store.Commit(ctx, next, transfers, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return next.Clone(), nil
}

// ExecuteSwap authorizes the agent's trade through a whitelisted venue. The
// engine moves no value here: the venue leg runs outside the core, bounded
// by the amount check. This is the only action the agent can take.
func (e *Engine) ExecuteSwap(ctx context.Context, caller, owner model.Identity, sessionID model.SessionID, amountIn, minimumAmountOut uint64, venue model.Identity) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().Unix()
	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if v.Status != model.StatusActive {
		return nil, ErrInvalidStatus
	}
	if v.Agent != caller {
		return nil, ErrUnauthorized
	}
	if now >= v.ExpiresAt {
		return nil, ErrSessionExpired
	}
	if amountIn > v.Balance {
		return nil, ErrInsufficientBalance
	}
	if !VenueWhitelisted(venue) {
		return nil, ErrVenueNotWhitelisted
	}

	evt := model.SwapExecuted{
		SessionID:        sessionID,
		Agent:            caller,
		Venue:            venue,
		AmountIn:         amountIn,
		MinimumAmountOut: minimumAmountOut,
		Timestamp:        now,
	}
	if err := e.store.Commit(ctx, v, nil, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return v.Clone(), nil
}

// DeductComputeFee debits the flat daily fee for each full elapsed day,
// capped at the remaining balance so it never underflows. Callable by
// anyone; funds can only move toward the recorded fee recipient. A vault
// whose balance reaches zero expires.
func (e *Engine) DeductComputeFee(ctx context.Context, owner model.Identity, sessionID model.SessionID, feeRecipient model.Identity) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().Unix()
	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if v.Status != model.StatusActive && v.Status != model.StatusPaused {
		return nil, ErrInvalidStatus
	}
	if v.FeeRecipient != feeRecipient {
		return nil, ErrInvalidFeeRecipient
	}

	elapsed := now - v.LastFeeDeduction
	if elapsed < 0 {
		return nil, ErrMathOverflow
	}
	days := elapsed / FeeInterval
	if days < 1 {
		return nil, ErrTooEarlyForDeduction
	}

	fee, err := checkedMul(uint64(days), DailyComputeFee)
	if err != nil {
		return nil, err
	}
	if fee > v.Balance {
		fee = v.Balance
	}

	next := v.Clone()
	next.Balance, err = checkedSub(v.Balance, fee)
	if err != nil {
		return nil, err
	}
	next.ComputeFeesPaid, err = checkedAdd(v.ComputeFeesPaid, fee)
	if err != nil {
		return nil, err
	}
	next.LastFeeDeduction = now
	if next.Balance == 0 {
		next.Status = model.StatusExpired
	}

	transfers := []model.Transfer{
		{Kind: model.TransferComputeFee, From: v.Address(), To: v.FeeRecipient, Amount: fee},
	}
	evt := model.ComputeFeeDeducted{
		SessionID:        sessionID,
		Fee:              fee,
		RemainingBalance: next.Balance,
	}
	if err := e.store.Commit(ctx, next, transfers, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return next.Clone(), nil
}

// Pause suspends trading. Owner only.
func (e *Engine) Pause(ctx context.Context, caller, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if v.Owner != caller {
		return nil, ErrUnauthorized
	}
	if v.Status != model.StatusActive {
		return nil, ErrInvalidStatus
	}

	next := v.Clone()
	next.Status = model.StatusPaused

	evt := model.SessionPaused{SessionID: sessionID}
	if err := e.store.Commit(ctx, next, nil, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return next.Clone(), nil
}

// Resume re-enables trading on a paused, unexpired session. Owner only.
func (e *Engine) Resume(ctx context.Context, caller, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().Unix()
	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if v.Owner != caller {
		return nil, ErrUnauthorized
	}
	if v.Status != model.StatusPaused {
		return nil, ErrInvalidStatus
	}
	if now >= v.ExpiresAt {
		return nil, ErrSessionExpired
	}

	next := v.Clone()
	next.Status = model.StatusActive

	evt := model.SessionResumed{SessionID: sessionID}
	if err := e.store.Commit(ctx, next, nil, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return next.Clone(), nil
}

// Withdraw returns the entire remaining balance to the owner. Works in any
// state except Pending, including Expired — the owner can always get funds
// back. The vault ends Withdrawn, terminally.
func (e *Engine) Withdraw(ctx context.Context, caller, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if v.Owner != caller {
		return nil, ErrUnauthorized
	}
	if v.Status == model.StatusPending {
		return nil, ErrInvalidStatus
	}
	if v.Balance == 0 {
		return nil, ErrInsufficientBalance
	}

	amount := v.Balance
	next := v.Clone()
	next.Balance = 0
	next.Status = model.StatusWithdrawn

	transfers := []model.Transfer{
		{Kind: model.TransferWithdrawal, From: v.Address(), To: v.Owner, Amount: amount},
	}
	evt := model.Withdrawn{SessionID: sessionID, Amount: amount, Owner: v.Owner}
	if err := e.store.Commit(ctx, next, transfers, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return next.Clone(), nil
}

// Expire marks a session past its deadline as Expired. Callable by anyone.
// The remaining balance is untouched and stays claimable via Withdraw.
func (e *Engine) Expire(ctx context.Context, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().Unix()
	v, err := e.store.Get(ctx, owner, sessionID)
	if err != nil {
		return nil, err
	}
	if v.Status != model.StatusActive && v.Status != model.StatusPaused {
		return nil, ErrInvalidStatus
	}
	if now < v.ExpiresAt {
		return nil, ErrSessionNotExpired
	}

	next := v.Clone()
	next.Status = model.StatusExpired

	evt := model.SessionExpired{SessionID: sessionID, RemainingBalance: v.Balance}
	if err := e.store.Commit(ctx, next, nil, evt); err != nil {
		return nil, err
	}
	e.emit(ctx, evt)
	return next.Clone(), nil
}

// Vault returns a snapshot of the addressed record.
func (e *Engine) Vault(ctx context.Context, owner model.Identity, sessionID model.SessionID) (*model.Vault, error) {
	return e.store.Get(ctx, owner, sessionID)
}

// OpenVaults returns every vault in Active or Paused status, for the
// maintenance sweeps.
func (e *Engine) OpenVaults(ctx context.Context) ([]*model.Vault, error) {
	return e.store.ListOpen(ctx)
}

func (e *Engine) emit(ctx context.Context, evt model.Event) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, evt); err != nil {
		log.Printf("[ERROR] notify %s: %v", evt.EventType(), err)
	}
}

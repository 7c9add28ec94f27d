package escrow

import (
	"context"
	"errors"
	"testing"
	"time"

	"AgentEscrow/internal/model"
	"AgentEscrow/internal/store"
)

const (
	testOwner     = model.Identity("owner-7f2k")
	testAgent     = model.Identity("agent-9x1q")
	testTreasury  = model.Identity("treasury-main")
	testVenue     = model.Identity("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4")
	testIntruder  = model.Identity("mallory")
	oneUnit       = uint64(1_000_000_000)
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine() (*Engine, *store.MemoryStore, *fakeClock) {
	st := store.NewMemoryStore()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	e := NewEngine(st, nil)
	e.now = clock.now
	return e, st, clock
}

func createSession(t *testing.T, e *Engine, durationDays uint16) model.SessionID {
	t.Helper()
	sid := model.NewSessionID()
	if _, err := e.Initialize(context.Background(), testOwner, sid, durationDays, testAgent, testTreasury); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return sid
}

func fundSession(t *testing.T, e *Engine, sid model.SessionID, amount uint64) *model.Vault {
	t.Helper()
	v, err := e.Deposit(context.Background(), testOwner, testOwner, sid, amount, testTreasury)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	return v
}

func TestInitialize(t *testing.T) {
	e, st, clock := newTestEngine()
	ctx := context.Background()

	sid := model.NewSessionID()
	v, err := e.Initialize(ctx, testOwner, sid, 30, testAgent, testTreasury)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if v.Status != model.StatusPending {
		t.Errorf("status = %s, want PENDING", v.Status)
	}
	if v.Balance != 0 || v.FeeCollected != 0 || v.ComputeFeesPaid != 0 {
		t.Errorf("fresh vault carries balances: %+v", v)
	}
	if v.Owner != testOwner || v.Agent != testAgent || v.FeeRecipient != testTreasury {
		t.Errorf("parties not recorded: %+v", v)
	}
	if v.CreatedAt != clock.t.Unix() {
		t.Errorf("created_at = %d, want %d", v.CreatedAt, clock.t.Unix())
	}
	if v.ExpiresAt != 0 {
		t.Errorf("expires_at set before funding: %d", v.ExpiresAt)
	}

	events := st.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	created, ok := events[0].(model.SessionCreated)
	if !ok {
		t.Fatalf("expected SessionCreated, got %T", events[0])
	}
	if created.DurationDays != 30 || created.Agent != testAgent {
		t.Errorf("event fields: %+v", created)
	}
}

func TestInitialize_DuplicateSession(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()

	sid := model.NewSessionID()
	if _, err := e.Initialize(ctx, testOwner, sid, 7, testAgent, testTreasury); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if _, err := e.Initialize(ctx, testOwner, sid, 7, testAgent, testTreasury); !errors.Is(err, store.ErrExists) {
		t.Errorf("second initialize: got %v, want ErrExists", err)
	}
}

func TestDeposit_FeeSplit(t *testing.T) {
	e, st, clock := newTestEngine()
	sid := createSession(t, e, 1)

	v := fundSession(t, e, sid, oneUnit)

	if v.FeeCollected != 25_000_000 {
		t.Errorf("fee_collected = %d, want 25000000", v.FeeCollected)
	}
	if v.Balance != 975_000_000 {
		t.Errorf("balance = %d, want 975000000", v.Balance)
	}
	if v.FeeCollected+v.Balance != oneUnit {
		t.Errorf("value not conserved: fee %d + balance %d != %d", v.FeeCollected, v.Balance, oneUnit)
	}
	if v.Status != model.StatusActive {
		t.Errorf("status = %s, want ACTIVE", v.Status)
	}
	if v.ExpiresAt != v.FundedAt+86400 {
		t.Errorf("expires_at = %d, want funded_at+86400 = %d", v.ExpiresAt, v.FundedAt+86400)
	}
	if v.FundedAt != clock.t.Unix() || v.LastFeeDeduction != clock.t.Unix() {
		t.Errorf("timestamps not snapshotted: %+v", v)
	}

	transfers, _ := st.Transfers(context.Background(), testOwner, sid)
	if len(transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(transfers))
	}
	if transfers[0].Kind != model.TransferDeposit || transfers[0].Amount != 975_000_000 {
		t.Errorf("deposit transfer: %+v", transfers[0])
	}
	if transfers[1].Kind != model.TransferSetupFee || transfers[1].To != testTreasury || transfers[1].Amount != 25_000_000 {
		t.Errorf("fee transfer: %+v", transfers[1])
	}
}

func TestDeposit_FeeTruncates(t *testing.T) {
	e, _, _ := newTestEngine()
	sid := createSession(t, e, 7)

	// 100_000_039 * 250 / 10000 = 2_500_000.975 → 2_500_000
	v := fundSession(t, e, sid, 100_000_039)
	if v.FeeCollected != 2_500_000 {
		t.Errorf("fee_collected = %d, want 2500000", v.FeeCollected)
	}
	if v.Balance != 97_500_039 {
		t.Errorf("balance = %d, want 97500039", v.Balance)
	}
}

func TestDeposit_Guards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  model.Identity
		amount  uint64
		feeRcpt model.Identity
		prep    func(t *testing.T, e *Engine, sid model.SessionID)
		wantErr error
	}{
		{
			name:    "below minimum",
			caller:  testOwner,
			amount:  MinDeposit - 1,
			feeRcpt: testTreasury,
			wantErr: ErrDepositTooSmall,
		},
		{
			name:    "already funded",
			caller:  testOwner,
			amount:  oneUnit,
			feeRcpt: testTreasury,
			prep: func(t *testing.T, e *Engine, sid model.SessionID) {
				fundSession(t, e, sid, oneUnit)
			},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "wrong caller",
			caller:  testIntruder,
			amount:  oneUnit,
			feeRcpt: testTreasury,
			wantErr: ErrUnauthorized,
		},
		{
			name:    "wrong fee recipient",
			caller:  testOwner,
			amount:  oneUnit,
			feeRcpt: testIntruder,
			wantErr: ErrInvalidFeeRecipient,
		},
		{
			name:    "fee multiplication overflows",
			caller:  testOwner,
			amount:  1 << 63,
			feeRcpt: testTreasury,
			wantErr: ErrMathOverflow,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, _ := newTestEngine()
			sid := createSession(t, e, 7)
			if tt.prep != nil {
				tt.prep(t, e, sid)
			}
			before, _ := e.Vault(ctx, testOwner, sid)
			_, err := e.Deposit(ctx, tt.caller, testOwner, sid, tt.amount, tt.feeRcpt)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			after, _ := e.Vault(ctx, testOwner, sid)
			if *after != *before {
				t.Errorf("rejected deposit mutated the vault:\nbefore %+v\nafter  %+v", before, after)
			}
		})
	}
}

func TestExecuteSwap(t *testing.T) {
	e, st, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 7)
	funded := fundSession(t, e, sid, oneUnit)

	v, err := e.ExecuteSwap(ctx, testAgent, testOwner, sid, 500_000_000, 490_000_000, testVenue)
	if err != nil {
		t.Fatalf("execute swap: %v", err)
	}
	// The core authorizes; it moves no value.
	if v.Balance != funded.Balance {
		t.Errorf("swap changed balance: %d -> %d", funded.Balance, v.Balance)
	}
	if transfers, _ := st.Transfers(ctx, testOwner, sid); len(transfers) != 2 {
		t.Errorf("swap recorded a transfer: %+v", transfers)
	}

	events := st.Events()
	last, ok := events[len(events)-1].(model.SwapExecuted)
	if !ok {
		t.Fatalf("expected SwapExecuted, got %T", events[len(events)-1])
	}
	if last.Venue != testVenue || last.AmountIn != 500_000_000 || last.MinimumAmountOut != 490_000_000 {
		t.Errorf("event fields: %+v", last)
	}
	if last.Timestamp != clock.t.Unix() {
		t.Errorf("timestamp = %d, want %d", last.Timestamp, clock.t.Unix())
	}
}

func TestExecuteSwap_Guards(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		caller   model.Identity
		amountIn uint64
		venue    model.Identity
		prep     func(t *testing.T, e *Engine, sid model.SessionID, clock *fakeClock)
		wantErr  error
	}{
		{
			name:     "not funded yet",
			caller:   testAgent,
			amountIn: 1,
			venue:    testVenue,
			wantErr:  ErrInvalidStatus,
		},
		{
			name:     "owner cannot trade",
			caller:   testOwner,
			amountIn: 1,
			venue:    testVenue,
			wantErr:  ErrUnauthorized,
		},
		{
			name:     "expired session",
			caller:   testAgent,
			amountIn: 1,
			venue:    testVenue,
			prep: func(t *testing.T, e *Engine, sid model.SessionID, clock *fakeClock) {
				clock.advance(8 * 24 * time.Hour)
			},
			wantErr: ErrSessionExpired,
		},
		{
			name:     "exceeds balance",
			caller:   testAgent,
			amountIn: oneUnit, // balance is amount minus fee
			venue:    testVenue,
			wantErr:  ErrInsufficientBalance,
		},
		{
			name:     "venue not whitelisted",
			caller:   testAgent,
			amountIn: 1,
			venue:    "EvilDexxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
			wantErr:  ErrVenueNotWhitelisted,
		},
		{
			name:     "paused",
			caller:   testAgent,
			amountIn: 1,
			venue:    testVenue,
			prep: func(t *testing.T, e *Engine, sid model.SessionID, clock *fakeClock) {
				if _, err := e.Pause(ctx, testOwner, testOwner, sid); err != nil {
					t.Fatalf("pause: %v", err)
				}
			},
			wantErr: ErrInvalidStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _, clock := newTestEngine()
			sid := createSession(t, e, 7)
			if tt.name != "not funded yet" {
				fundSession(t, e, sid, oneUnit)
			}
			if tt.prep != nil {
				tt.prep(t, e, sid, clock)
			}
			before, _ := e.Vault(ctx, testOwner, sid)
			_, err := e.ExecuteSwap(ctx, tt.caller, testOwner, sid, tt.amountIn, 0, tt.venue)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			after, _ := e.Vault(ctx, testOwner, sid)
			if *after != *before {
				t.Errorf("rejected swap mutated the vault")
			}
		})
	}
}

func TestDeductComputeFee_SingleDay(t *testing.T) {
	e, _, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 30)
	funded := fundSession(t, e, sid, oneUnit)

	clock.advance(25 * time.Hour)
	v, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if v.Balance != funded.Balance-DailyComputeFee {
		t.Errorf("balance = %d, want %d", v.Balance, funded.Balance-DailyComputeFee)
	}
	if v.ComputeFeesPaid != DailyComputeFee {
		t.Errorf("compute_fees_paid = %d, want %d", v.ComputeFeesPaid, DailyComputeFee)
	}
	if v.LastFeeDeduction != clock.t.Unix() {
		t.Errorf("last_fee_deduction not advanced")
	}
	if v.Status != model.StatusActive {
		t.Errorf("status = %s, want ACTIVE", v.Status)
	}
}

func TestDeductComputeFee_CapsAndExpires(t *testing.T) {
	e, st, clock := newTestEngine()
	ctx := context.Background()

	// Seed a vault whose balance is below two days of fees.
	sid := model.NewSessionID()
	now := clock.t.Unix()
	seed := &model.Vault{
		Owner: testOwner, Agent: testAgent, FeeRecipient: testTreasury,
		SessionID: sid, Balance: 15_000_000, DurationDays: 30,
		Status: model.StatusActive, CreatedAt: now, FundedAt: now,
		ExpiresAt: now + 30*86400, LastFeeDeduction: now - 2*86400,
	}
	if err := st.Create(ctx, seed, model.SessionCreated{SessionID: sid}); err != nil {
		t.Fatalf("seed vault: %v", err)
	}

	v, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury)
	if err != nil {
		t.Fatalf("deduct: %v", err)
	}
	// Two elapsed days would charge 20_000_000; the cap limits it to 15_000_000.
	if v.ComputeFeesPaid != 15_000_000 {
		t.Errorf("compute_fees_paid = %d, want 15000000", v.ComputeFeesPaid)
	}
	if v.Balance != 0 {
		t.Errorf("balance = %d, want 0", v.Balance)
	}
	if v.Status != model.StatusExpired {
		t.Errorf("status = %s, want EXPIRED after depletion", v.Status)
	}
}

func TestDeductComputeFee_RejectionIdempotence(t *testing.T) {
	e, _, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 30)
	fundSession(t, e, sid, oneUnit)

	clock.advance(24 * time.Hour)
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); err != nil {
		t.Fatalf("first deduct: %v", err)
	}
	// Same second: the full-day guard must reject.
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); !errors.Is(err, ErrTooEarlyForDeduction) {
		t.Errorf("second deduct: got %v, want ErrTooEarlyForDeduction", err)
	}
}

func TestDeductComputeFee_Guards(t *testing.T) {
	e, _, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 30)

	// Pending vault
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("pending: got %v, want ErrInvalidStatus", err)
	}

	fundSession(t, e, sid, oneUnit)

	// Too early
	clock.advance(23 * time.Hour)
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); !errors.Is(err, ErrTooEarlyForDeduction) {
		t.Errorf("23h: got %v, want ErrTooEarlyForDeduction", err)
	}

	// Wrong fee recipient
	clock.advance(2 * time.Hour)
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testIntruder); !errors.Is(err, ErrInvalidFeeRecipient) {
		t.Errorf("wrong recipient: got %v, want ErrInvalidFeeRecipient", err)
	}

	// Works while paused
	if _, err := e.Pause(ctx, testOwner, testOwner, sid); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); err != nil {
		t.Errorf("paused deduct: %v", err)
	}
}

func TestPauseResume(t *testing.T) {
	e, _, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 7)
	fundSession(t, e, sid, oneUnit)

	if _, err := e.Pause(ctx, testAgent, testOwner, sid); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("agent pause: got %v, want ErrUnauthorized", err)
	}

	v, err := e.Pause(ctx, testOwner, testOwner, sid)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if v.Status != model.StatusPaused {
		t.Errorf("status = %s, want PAUSED", v.Status)
	}

	if _, err := e.Pause(ctx, testOwner, testOwner, sid); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("double pause: got %v, want ErrInvalidStatus", err)
	}

	v, err = e.Resume(ctx, testOwner, testOwner, sid)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if v.Status != model.StatusActive {
		t.Errorf("status = %s, want ACTIVE", v.Status)
	}

	// Resume after the deadline must fail.
	if _, err := e.Pause(ctx, testOwner, testOwner, sid); err != nil {
		t.Fatalf("pause again: %v", err)
	}
	clock.advance(8 * 24 * time.Hour)
	if _, err := e.Resume(ctx, testOwner, testOwner, sid); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("late resume: got %v, want ErrSessionExpired", err)
	}
}

func TestWithdraw_FromExpired(t *testing.T) {
	e, st, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 1)
	funded := fundSession(t, e, sid, oneUnit)

	clock.advance(2 * 24 * time.Hour)
	if _, err := e.Expire(ctx, testOwner, sid); err != nil {
		t.Fatalf("expire: %v", err)
	}

	v, err := e.Withdraw(ctx, testOwner, testOwner, sid)
	if err != nil {
		t.Fatalf("withdraw from expired: %v", err)
	}
	if v.Balance != 0 {
		t.Errorf("balance = %d, want 0", v.Balance)
	}
	if v.Status != model.StatusWithdrawn {
		t.Errorf("status = %s, want WITHDRAWN", v.Status)
	}

	transfers, _ := st.Transfers(ctx, testOwner, sid)
	last := transfers[len(transfers)-1]
	if last.Kind != model.TransferWithdrawal || last.To != testOwner || last.Amount != funded.Balance {
		t.Errorf("withdrawal transfer: %+v", last)
	}

	if _, err := e.Withdraw(ctx, testOwner, testOwner, sid); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("second withdraw: got %v, want ErrInsufficientBalance", err)
	}
}

func TestWithdraw_Guards(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 7)

	if _, err := e.Withdraw(ctx, testOwner, testOwner, sid); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("pending withdraw: got %v, want ErrInvalidStatus", err)
	}

	fundSession(t, e, sid, oneUnit)

	if _, err := e.Withdraw(ctx, testAgent, testOwner, sid); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("agent withdraw: got %v, want ErrUnauthorized", err)
	}
	if _, err := e.Withdraw(ctx, testIntruder, testOwner, sid); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("intruder withdraw: got %v, want ErrUnauthorized", err)
	}
}

func TestExpire(t *testing.T) {
	e, _, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 1)
	funded := fundSession(t, e, sid, oneUnit)

	if _, err := e.Expire(ctx, testOwner, sid); !errors.Is(err, ErrSessionNotExpired) {
		t.Errorf("early expire: got %v, want ErrSessionNotExpired", err)
	}

	clock.advance(24 * time.Hour)
	v, err := e.Expire(ctx, testOwner, sid)
	if err != nil {
		t.Fatalf("expire at deadline: %v", err)
	}
	if v.Status != model.StatusExpired {
		t.Errorf("status = %s, want EXPIRED", v.Status)
	}
	if v.Balance != funded.Balance {
		t.Errorf("expire touched balance: %d -> %d", funded.Balance, v.Balance)
	}

	if _, err := e.Expire(ctx, testOwner, sid); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("double expire: got %v, want ErrInvalidStatus", err)
	}
}

func TestTerminalStates(t *testing.T) {
	e, _, _ := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 7)
	fundSession(t, e, sid, oneUnit)

	if _, err := e.Withdraw(ctx, testOwner, testOwner, sid); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// Every subsequent operation must be rejected without mutation.
	ops := map[string]func() error{
		"deposit": func() error {
			_, err := e.Deposit(ctx, testOwner, testOwner, sid, oneUnit, testTreasury)
			return err
		},
		"swap": func() error {
			_, err := e.ExecuteSwap(ctx, testAgent, testOwner, sid, 1, 0, testVenue)
			return err
		},
		"deduct": func() error {
			_, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury)
			return err
		},
		"pause": func() error {
			_, err := e.Pause(ctx, testOwner, testOwner, sid)
			return err
		},
		"resume": func() error {
			_, err := e.Resume(ctx, testOwner, testOwner, sid)
			return err
		},
		"expire": func() error {
			_, err := e.Expire(ctx, testOwner, sid)
			return err
		},
	}
	for name, op := range ops {
		err := op()
		if !errors.Is(err, ErrInvalidStatus) && !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("%s after withdraw: got %v, want status/balance rejection", name, err)
		}
	}
	if _, err := e.Withdraw(ctx, testOwner, testOwner, sid); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("withdraw after withdraw: got %v", err)
	}

	v, _ := e.Vault(ctx, testOwner, sid)
	if v.Status != model.StatusWithdrawn || v.Balance != 0 {
		t.Errorf("terminal vault mutated: %+v", v)
	}
}

func TestAgentNeverReceivesValue(t *testing.T) {
	e, st, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 30)
	fundSession(t, e, sid, oneUnit)

	if _, err := e.ExecuteSwap(ctx, testAgent, testOwner, sid, 100_000_000, 99_000_000, testVenue); err != nil {
		t.Fatalf("swap: %v", err)
	}
	clock.advance(36 * time.Hour)
	if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); err != nil {
		t.Fatalf("deduct: %v", err)
	}
	if _, err := e.Pause(ctx, testOwner, testOwner, sid); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := e.Resume(ctx, testOwner, testOwner, sid); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if _, err := e.Withdraw(ctx, testOwner, testOwner, sid); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	transfers, err := st.Transfers(ctx, testOwner, sid)
	if err != nil {
		t.Fatalf("transfers: %v", err)
	}
	if len(transfers) == 0 {
		t.Fatal("expected transfers after a full session life")
	}
	for _, tr := range transfers {
		if tr.To == testAgent || tr.From == testAgent {
			t.Errorf("agent appeared in a value movement: %+v", tr)
		}
	}
}

func TestBalanceNeverExceedsDeposit(t *testing.T) {
	e, _, clock := newTestEngine()
	ctx := context.Background()
	sid := createSession(t, e, 30)
	fundSession(t, e, sid, oneUnit)

	for day := 0; day < 5; day++ {
		clock.advance(24 * time.Hour)
		if _, err := e.DeductComputeFee(ctx, testOwner, sid, testTreasury); err != nil {
			t.Fatalf("deduct day %d: %v", day, err)
		}
		v, _ := e.Vault(ctx, testOwner, sid)
		if v.Balance > oneUnit {
			t.Fatalf("balance %d exceeds deposit %d", v.Balance, oneUnit)
		}
	}
}

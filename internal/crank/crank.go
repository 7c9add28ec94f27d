package crank

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"AgentEscrow/internal/escrow"
	"AgentEscrow/internal/model"
	"AgentEscrow/internal/notifier"

	"github.com/robfig/cron/v3"
)

// Crank runs the permissionless maintenance sweeps on cron schedules: the
// daily compute-fee deduction and the expiry of sessions past their
// deadline. It holds no special authority — every call goes through the
// engine's guards like any anonymous caller's would.
type Crank struct {
	Cron   *cron.Cron
	Engine *escrow.Engine
	Ctx    context.Context
}

// New creates a Crank over the given engine.
func New(ctx context.Context, eng *escrow.Engine) *Crank {
	return &Crank{
		Cron:   cron.New(cron.WithSeconds()),
		Engine: eng,
		Ctx:    ctx,
	}
}

// RegisterAll registers the deduction and expiry sweeps.
func (c *Crank) RegisterAll(deductCron, expireCron string) error {
	if _, err := c.Cron.AddFunc(deductCron, c.DeductionSweep); err != nil {
		return fmt.Errorf("register deduction sweep: %w", err)
	}
	if _, err := c.Cron.AddFunc(expireCron, c.ExpirySweep); err != nil {
		return fmt.Errorf("register expiry sweep: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (c *Crank) Start() {
	c.Cron.Start()
	log.Println("[INFO] crank started")
}

// Stop stops the cron scheduler gracefully.
func (c *Crank) Stop() {
	c.Cron.Stop()
	log.Println("[INFO] crank stopped")
}

// DeductionSweep attempts a compute-fee deduction on every open vault.
// Vaults whose interval has not elapsed reject the call; that is expected.
func (c *Crank) DeductionSweep() {
	vaults, err := c.Engine.OpenVaults(c.Ctx)
	if err != nil {
		log.Printf("[ERROR] deduction sweep: list vaults: %v", err)
		return
	}

	var debited, skipped, failed int
	for _, v := range vaults {
		_, err := c.Engine.DeductComputeFee(c.Ctx, v.Owner, v.SessionID, v.FeeRecipient)
		switch {
		case err == nil:
			debited++
		case errors.Is(err, escrow.ErrTooEarlyForDeduction), errors.Is(err, escrow.ErrInvalidStatus):
			skipped++
		default:
			failed++
			log.Printf("[ERROR] deduct fee for session %s: %v", v.SessionID, err)
		}
	}
	log.Printf("[INFO] deduction sweep: %d debited, %d skipped, %d failed (of %d open)", debited, skipped, failed, len(vaults))
}

// ExpirySweep expires every open vault past its deadline.
func (c *Crank) ExpirySweep() {
	vaults, err := c.Engine.OpenVaults(c.Ctx)
	if err != nil {
		log.Printf("[ERROR] expiry sweep: list vaults: %v", err)
		return
	}

	var expired, skipped, failed int
	for _, v := range vaults {
		_, err := c.Engine.Expire(c.Ctx, v.Owner, v.SessionID)
		switch {
		case err == nil:
			expired++
		case errors.Is(err, escrow.ErrSessionNotExpired), errors.Is(err, escrow.ErrInvalidStatus):
			skipped++
		default:
			failed++
			log.Printf("[ERROR] expire session %s: %v", v.SessionID, err)
		}
	}
	log.Printf("[INFO] expiry sweep: %d expired, %d skipped, %d failed (of %d open)", expired, skipped, failed, len(vaults))
}

// HandleCommand answers an operator command with a formatted reply.
func (c *Crank) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}

	switch fields[0] {
	case "/sessions":
		vaults, err := c.Engine.OpenVaults(c.Ctx)
		if err != nil {
			return fmt.Sprintf("list sessions failed: %v", err)
		}
		if len(vaults) == 0 {
			return "no open sessions"
		}
		var b strings.Builder
		b.WriteString(fmt.Sprintf("%d open session(s):\n", len(vaults)))
		for _, v := range vaults {
			b.WriteString(fmt.Sprintf("• <code>%s</code> %s\n", v.SessionID, v.Status))
		}
		return b.String()
	case "/status":
		if len(fields) != 3 {
			return "usage: /status <owner> <session_id>"
		}
		sid, err := model.ParseSessionID(fields[2])
		if err != nil {
			return fmt.Sprintf("bad session id: %v", err)
		}
		v, err := c.Engine.Vault(c.Ctx, model.Identity(fields[1]), sid)
		if err != nil {
			return fmt.Sprintf("lookup failed: %v", err)
		}
		return notifier.FormatVault(v)
	case "/deduct":
		go c.DeductionSweep()
		return "deduction sweep started"
	case "/expire":
		go c.ExpirySweep()
		return "expiry sweep started"
	default:
		return "commands:\n• /sessions\n• /status <owner> <session_id>\n• /deduct\n• /expire"
	}
}

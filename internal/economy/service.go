// Package economy composes the config store, balance ledger and quota tracker
// into the game's operations: daily bonus, theft, exchange, admin
// grant/remove/reset and the leaderboard.
//
// Every operation runs its full read-modify-write inside a single transaction,
// so two concurrent operations against the same user serialize on the row lock
// instead of losing updates.
package economy

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ecobot/backend/internal/models"
	"github.com/ecobot/backend/internal/quota"
)

// LeaderboardSize is the number of entries the leaderboard returns.
const LeaderboardSize = 10

// LedgerRepo is the balance store interface used by the operations.
type LedgerRepo interface {
	GetBalance(ctx context.Context, userID string) (int, error)
	GetBalanceTx(ctx context.Context, tx pgx.Tx, userID string) (int, error)
	ApplyDelta(ctx context.Context, tx pgx.Tx, userID string, delta int) (int, error)
	Top(ctx context.Context, limit int) ([]models.User, error)
}

// QuotaRepo is the usage-counter and cooldown interface used by the operations.
type QuotaRepo interface {
	CountToday(ctx context.Context, tx pgx.Tx, userID, action, day string) (int, error)
	Increment(ctx context.Context, tx pgx.Tx, userID, action, day string) error
	LastUsed(ctx context.Context, tx pgx.Tx, userID, action string) (time.Time, bool, error)
	Touch(ctx context.Context, tx pgx.Tx, userID, action string, at time.Time) error
}

// ConfigStore provides the tunable parameters governing the operations.
type ConfigStore interface {
	GetInt(ctx context.Context, key string) (int, error)
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DailyResult is the outcome of a successful daily bonus claim.
type DailyResult struct {
	Amount     int `json:"amount"`
	NewBalance int `json:"new_balance"`
}

// StealResult is the outcome of a successful theft.
type StealResult struct {
	Amount        int `json:"amount"`
	ActorBalance  int `json:"actor_balance"`
	TargetBalance int `json:"target_balance"`
}

// ExchangeResult is the outcome of a successful transfer.
type ExchangeResult struct {
	ActorBalance  int `json:"actor_balance"`
	TargetBalance int `json:"target_balance"`
}

// GrantResult is the outcome of an admin grant.
type GrantResult struct {
	CallerBalance int `json:"caller_balance"`
	TargetBalance int `json:"target_balance"`
}

// RemoveResult is the outcome of an admin remove.
type RemoveResult struct {
	NewBalance int `json:"new_balance"`
}

// ResetResult is the outcome of an admin reset.
type ResetResult struct {
	Removed int `json:"removed"`
}

type Service interface {
	Balance(ctx context.Context, userID string) (int, error)
	Daily(ctx context.Context, userID string) (*DailyResult, error)
	Steal(ctx context.Context, actorID, targetID string) (*StealResult, error)
	Exchange(ctx context.Context, actorID, targetID string, amount int) (*ExchangeResult, error)
	Grant(ctx context.Context, callerID, targetID string, amount int) (*GrantResult, error)
	Remove(ctx context.Context, targetID string, amount int) (*RemoveResult, error)
	Reset(ctx context.Context, targetID string) (*ResetResult, error)
	Leaderboard(ctx context.Context) ([]models.User, error)
}

type service struct {
	pool   TxBeginner
	cfg    ConfigStore
	ledger LedgerRepo
	quota  QuotaRepo

	// Injected for tests.
	now  func() time.Time
	intn func(n int) int
}

// NewService wires the operations over the shared persistence handle.
func NewService(pool TxBeginner, cfg ConfigStore, ledgerRepo LedgerRepo, quotaRepo QuotaRepo) *service {
	return &service{
		pool:   pool,
		cfg:    cfg,
		ledger: ledgerRepo,
		quota:  quotaRepo,
		now:    time.Now,
		intn:   rand.IntN,
	}
}

var _ Service = (*service)(nil)

func (s *service) Balance(ctx context.Context, userID string) (int, error) {
	return s.ledger.GetBalance(ctx, userID)
}

func (s *service) Leaderboard(ctx context.Context) ([]models.User, error) {
	return s.ledger.Top(ctx, LeaderboardSize)
}

// Daily credits the daily bonus, gated by daily_cooldown per user.
func (s *service) Daily(ctx context.Context, userID string) (*DailyResult, error) {
	amount, err := s.cfg.GetInt(ctx, "daily_amount")
	if err != nil {
		return nil, err
	}
	cooldown, err := s.cfg.GetInt(ctx, "daily_cooldown")
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := s.now()
	if err := s.checkCooldown(ctx, tx, userID, models.ActionDaily, cooldown, now); err != nil {
		return nil, err
	}
	newBalance, err := s.ledger.ApplyDelta(ctx, tx, userID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Increment(ctx, tx, userID, models.ActionDaily, quota.Day(now)); err != nil {
		return nil, err
	}
	if err := s.quota.Touch(ctx, tx, userID, models.ActionDaily, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &DailyResult{Amount: amount, NewBalance: newBalance}, nil
}

// Steal draws a uniform amount in [minimum_volable, min(maximum_volable,
// target balance)] and moves it from target to actor.
func (s *service) Steal(ctx context.Context, actorID, targetID string) (*StealResult, error) {
	if targetID == actorID {
		return nil, ErrSelfTarget
	}
	maxPerDay, err := s.cfg.GetInt(ctx, "vols_max_par_jours")
	if err != nil {
		return nil, err
	}
	minSteal, err := s.cfg.GetInt(ctx, "minimum_volable")
	if err != nil {
		return nil, err
	}
	maxSteal, err := s.cfg.GetInt(ctx, "maximum_volable")
	if err != nil {
		return nil, err
	}
	cooldown, err := s.cfg.GetInt(ctx, "vol_cooldown")
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := s.now()
	day := quota.Day(now)
	count, err := s.quota.CountToday(ctx, tx, actorID, models.ActionTheft, day)
	if err != nil {
		return nil, err
	}
	if count >= maxPerDay {
		return nil, ErrQuotaExceeded
	}
	if err := s.checkCooldown(ctx, tx, actorID, models.ActionTheft, cooldown, now); err != nil {
		return nil, err
	}

	_, targetBal, err := s.lockPair(ctx, tx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if targetBal < minSteal {
		return nil, ErrTargetTooPoor
	}

	hi := min(maxSteal, targetBal)
	amount := minSteal + s.intn(hi-minSteal+1)

	actorBalance, err := s.ledger.ApplyDelta(ctx, tx, actorID, amount)
	if err != nil {
		return nil, err
	}
	targetBalance, err := s.ledger.ApplyDelta(ctx, tx, targetID, -amount)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Increment(ctx, tx, actorID, models.ActionTheft, day); err != nil {
		return nil, err
	}
	if err := s.quota.Touch(ctx, tx, actorID, models.ActionTheft, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &StealResult{Amount: amount, ActorBalance: actorBalance, TargetBalance: targetBalance}, nil
}

// Exchange transfers amount from actor to target.
func (s *service) Exchange(ctx context.Context, actorID, targetID string, amount int) (*ExchangeResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	maxPerDay, err := s.cfg.GetInt(ctx, "echanges_max_per_day")
	if err != nil {
		return nil, err
	}
	maxAmount, err := s.cfg.GetInt(ctx, "echange_max_amount")
	if err != nil {
		return nil, err
	}
	cooldown, err := s.cfg.GetInt(ctx, "echange_cooldown")
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := s.now()
	day := quota.Day(now)
	count, err := s.quota.CountToday(ctx, tx, actorID, models.ActionExchange, day)
	if err != nil {
		return nil, err
	}
	if count >= maxPerDay {
		return nil, ErrQuotaExceeded
	}
	if err := s.checkCooldown(ctx, tx, actorID, models.ActionExchange, cooldown, now); err != nil {
		return nil, err
	}
	if amount > maxAmount {
		return nil, ErrAmountTooLarge
	}

	actorBal, _, err := s.lockPair(ctx, tx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if actorBal < amount {
		return nil, ErrInsufficientFunds
	}

	actorBalance, err := s.ledger.ApplyDelta(ctx, tx, actorID, -amount)
	if err != nil {
		return nil, err
	}
	targetBalance, err := s.ledger.ApplyDelta(ctx, tx, targetID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Increment(ctx, tx, actorID, models.ActionExchange, day); err != nil {
		return nil, err
	}
	if err := s.quota.Touch(ctx, tx, actorID, models.ActionExchange, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ExchangeResult{ActorBalance: actorBalance, TargetBalance: targetBalance}, nil
}

// Grant moves amount from the admin caller to target. The caller's balance is
// not checked; a grant beyond it floors the caller at zero. That asymmetry
// with Exchange/Remove is inherited behavior, kept on purpose.
func (s *service) Grant(ctx context.Context, callerID, targetID string, amount int) (*GrantResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, _, err := s.lockPair(ctx, tx, callerID, targetID); err != nil {
		return nil, err
	}
	callerBalance, err := s.ledger.ApplyDelta(ctx, tx, callerID, -amount)
	if err != nil {
		return nil, err
	}
	targetBalance, err := s.ledger.ApplyDelta(ctx, tx, targetID, amount)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Increment(ctx, tx, callerID, models.ActionGrant, quota.Day(s.now())); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &GrantResult{CallerBalance: callerBalance, TargetBalance: targetBalance}, nil
}

// Remove deducts amount from target, erroring instead of flooring when the
// balance is too low.
func (s *service) Remove(ctx context.Context, targetID string, amount int) (*RemoveResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := s.ledger.GetBalanceTx(ctx, tx, targetID)
	if err != nil {
		return nil, err
	}
	if amount > balance {
		return nil, ErrInsufficientFunds
	}
	newBalance, err := s.ledger.ApplyDelta(ctx, tx, targetID, -amount)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &RemoveResult{NewBalance: newBalance}, nil
}

// Reset zeroes target's balance and reports how much was removed.
func (s *service) Reset(ctx context.Context, targetID string) (*ResetResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	balance, err := s.ledger.GetBalanceTx(ctx, tx, targetID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.ApplyDelta(ctx, tx, targetID, -balance); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &ResetResult{Removed: balance}, nil
}

// checkCooldown rejects the action when its cooldown has not elapsed.
// A non-positive cooldown disables the gate.
func (s *service) checkCooldown(ctx context.Context, tx pgx.Tx, userID, action string, cooldownSeconds int, now time.Time) error {
	if cooldownSeconds <= 0 {
		return nil
	}
	last, ok, err := s.quota.LastUsed(ctx, tx, userID, action)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	wait := time.Duration(cooldownSeconds)*time.Second - now.Sub(last)
	if wait > 0 {
		return &CooldownError{Action: action, Remaining: wait}
	}
	return nil
}

// lockPair materializes and locks both user rows in deterministic order so
// crossing two-user operations cannot deadlock. Returns the balances of a
// and b.
func (s *service) lockPair(ctx context.Context, tx pgx.Tx, a, b string) (int, int, error) {
	balances := make(map[string]int, 2)
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		bal, err := s.ledger.GetBalanceTx(ctx, tx, id)
		if err != nil {
			return 0, 0, err
		}
		balances[id] = bal
	}
	return balances[a], balances[b], nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/goldvault/backend/internal/model"
	"github.com/goldvault/backend/internal/repository"
)

// These tests run the engine against a real Postgres because every money
// operation is a database transaction. Set DATABASE_URL to enable them.

type testEnv struct {
	repo          *repository.Repository
	userSvc       *UserService
	balanceSvc    *BalanceService
	depositSvc    *DepositService
	withdrawalSvc *WithdrawalService
	referralSvc   *ReferralService
	adminSvc      *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	_ = godotenv.Load() // allow .env for local runs
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping Postgres integration")
	}

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
	m.Close()

	repo, err := repository.New(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	userSvc := NewUserService(repo)
	balanceSvc := NewBalanceService(repo)
	return &testEnv{
		repo:          repo,
		userSvc:       userSvc,
		balanceSvc:    balanceSvc,
		depositSvc:    NewDepositService(repo),
		withdrawalSvc: NewWithdrawalService(repo, userSvc, balanceSvc),
		referralSvc:   NewReferralService(repo),
		adminSvc:      NewAdminService(repo),
	}
}

const testPassword = "correct-horse"

func (e *testEnv) register(t *testing.T, referredBy string) *model.User {
	t.Helper()
	email := fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8])
	user, err := e.userSvc.Register(context.Background(), email, testPassword, referredBy)
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

// fund submits and approves a deposit so the user has spendable balance.
func (e *testEnv) fund(t *testing.T, user *model.User, amount float64) *model.Deposit {
	t.Helper()
	deposit, err := e.depositSvc.Submit(context.Background(), user, amount, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	approved, _, err := e.adminSvc.ApproveDeposit(context.Background(), deposit.ID)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	return approved
}

// backdate rewinds a user's accrual clock and a deposit's approval instant so
// accrual windows can be exercised without waiting for wall-clock days.
func (e *testEnv) backdate(t *testing.T, userID, depositID uuid.UUID, userAgo, depositAgo time.Duration) {
	t.Helper()
	ctx := context.Background()
	_, err := e.repo.DB().ExecContext(ctx,
		"UPDATE users SET last_accrual_at = $1 WHERE id = $2",
		time.Now().UTC().Add(-userAgo), userID)
	if err != nil {
		t.Fatalf("backdate user: %v", err)
	}
	_, err = e.repo.DB().ExecContext(ctx,
		"UPDATE deposits SET approved_at = $1 WHERE id = $2",
		time.Now().UTC().Add(-depositAgo), depositID)
	if err != nil {
		t.Fatalf("backdate deposit: %v", err)
	}
}

// setReferredBy rewires a user's upstream code directly, to build chain
// shapes (cycles, self-references) registration itself refuses to create.
func (e *testEnv) setReferredBy(t *testing.T, userID uuid.UUID, code string) {
	t.Helper()
	_, err := e.repo.DB().ExecContext(context.Background(),
		"UPDATE users SET referred_by = $1 WHERE id = $2", code, userID)
	if err != nil {
		t.Fatalf("set referred_by: %v", err)
	}
}

func requireClose(t *testing.T, want, got float64, what string) {
	t.Helper()
	if math.Abs(want-got) > 1e-6 {
		t.Fatalf("%s: got %.6f, want %.6f", what, got, want)
	}
}

func TestReconcile_AppliesAccrualOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	deposit := env.fund(t, user, 100)
	env.backdate(t, user.ID, deposit.ID, 72*time.Hour, 72*time.Hour)

	// P=100, D=3 days at 1.8%/day: +5.40 on top of the 100 principal.
	updated, err := env.balanceSvc.Reconcile(ctx, user.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireClose(t, 105.40, updated.Balance, "balance after accrual")

	// Same window again: zero delta, lastAccrualAt untouched.
	again, err := env.balanceSvc.Reconcile(ctx, user.ID)
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	requireClose(t, 105.40, again.Balance, "balance after repeat reconcile")
	if !again.LastAccrualAt.Equal(updated.LastAccrualAt) {
		t.Fatalf("lastAccrualAt advanced without a day boundary: %v -> %v",
			updated.LastAccrualAt, again.LastAccrualAt)
	}
}

func TestReconcile_NoRetroactiveCredit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	deposit := env.fund(t, user, 100)
	// Accrual clock four days behind, but the deposit was only approved two
	// days ago: it earns for two days, not four.
	env.backdate(t, user.ID, deposit.ID, 96*time.Hour, 48*time.Hour)

	updated, err := env.balanceSvc.Reconcile(ctx, user.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	requireClose(t, 100+100*0.018*2, updated.Balance, "balance")
}

func TestApproveDeposit_CommissionFanOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	grandparent := env.register(t, "")
	parent := env.register(t, grandparent.ReferralCode)
	child := env.register(t, parent.ReferralCode)

	deposit, err := env.depositSvc.Submit(ctx, child, 200, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}

	_, credits, err := env.adminSvc.ApproveDeposit(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	if len(credits) != 2 {
		t.Fatalf("expected 2 commission credits, got %d", len(credits))
	}

	// $200 deposit: L1 referrer +$24 (12%), L2 referrer +$16 (8%).
	parentAfter, err := env.userSvc.GetUser(ctx, parent.ID)
	if err != nil {
		t.Fatalf("get parent: %v", err)
	}
	requireClose(t, 24, parentAfter.Balance, "level-1 referrer balance")

	grandAfter, err := env.userSvc.GetUser(ctx, grandparent.ID)
	if err != nil {
		t.Fatalf("get grandparent: %v", err)
	}
	requireClose(t, 16, grandAfter.Balance, "level-2 referrer balance")

	childAfter, err := env.userSvc.GetUser(ctx, child.ID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	requireClose(t, 200, childAfter.Balance, "depositor balance")
	requireClose(t, 200, childAfter.TotalDeposited, "depositor total deposited")

	// Commission must land on the referral edges too, not just balances.
	parentStats, err := env.referralSvc.GetStats(ctx, parent.ID)
	if err != nil {
		t.Fatalf("parent stats: %v", err)
	}
	requireClose(t, 24, parentStats.TotalCommission, "level-1 edge commission")

	grandStats, err := env.referralSvc.GetStats(ctx, grandparent.ID)
	if err != nil {
		t.Fatalf("grandparent stats: %v", err)
	}
	requireClose(t, 16, grandStats.TotalCommission, "level-2 edge commission")
	if grandStats.DirectReferrals != 1 || grandStats.IndirectReferrals != 1 {
		t.Fatalf("grandparent referral counts: %+v", grandStats)
	}
}

func TestRejectDeposit_NoCommission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	referrer := env.register(t, "")
	child := env.register(t, referrer.ReferralCode)

	deposit, err := env.depositSvc.Submit(ctx, child, 500, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}
	if _, err := env.adminSvc.RejectDeposit(ctx, deposit.ID); err != nil {
		t.Fatalf("reject deposit: %v", err)
	}

	referrerAfter, err := env.userSvc.GetUser(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}
	requireClose(t, 0, referrerAfter.Balance, "referrer balance after rejection")

	childAfter, err := env.userSvc.GetUser(ctx, child.ID)
	if err != nil {
		t.Fatalf("get child: %v", err)
	}
	requireClose(t, 0, childAfter.Balance, "depositor balance after rejection")

	// Terminal transitions are one-shot.
	if _, _, err := env.adminSvc.ApproveDeposit(ctx, deposit.ID); !errors.Is(err, repository.ErrDepositNotPending) {
		t.Fatalf("expected ErrDepositNotPending, got %v", err)
	}
}

func TestApproveDeposit_SingleLevelChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	referrer := env.register(t, "")
	child := env.register(t, referrer.ReferralCode)

	deposit, err := env.depositSvc.Submit(ctx, child, 100, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}

	// One resolvable hop pays exactly one level-1 credit, nothing deeper.
	_, credits, err := env.adminSvc.ApproveDeposit(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	if len(credits) != 1 {
		t.Fatalf("expected 1 commission credit, got %d", len(credits))
	}
	if credits[0].Level != 1 {
		t.Fatalf("expected level-1 credit, got level %d", credits[0].Level)
	}

	referrerAfter, err := env.userSvc.GetUser(ctx, referrer.ID)
	if err != nil {
		t.Fatalf("get referrer: %v", err)
	}
	requireClose(t, 12, referrerAfter.Balance, "single-hop referrer balance")
}

func TestApproveDeposit_SelfReferralPaysNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	env.setReferredBy(t, user.ID, user.ReferralCode)

	deposit, err := env.depositSvc.Submit(ctx, user, 100, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}

	_, credits, err := env.adminSvc.ApproveDeposit(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	if len(credits) != 0 {
		t.Fatalf("self-referral must pay no commission, got %d credits", len(credits))
	}

	after, err := env.userSvc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	requireClose(t, 100, after.Balance, "self-referred depositor balance")
}

func TestApproveDeposit_ReferralCycleStopsAtOrigin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// a <-> b reference each other; b's deposit must pay a's level-1
	// commission and stop instead of crediting b for its own deposit.
	a := env.register(t, "")
	b := env.register(t, a.ReferralCode)
	env.setReferredBy(t, a.ID, b.ReferralCode)

	deposit, err := env.depositSvc.Submit(ctx, b, 100, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}

	_, credits, err := env.adminSvc.ApproveDeposit(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	if len(credits) != 1 {
		t.Fatalf("cycle must pay only the non-cyclic hop, got %d credits", len(credits))
	}
	if credits[0].ReferrerID != a.ID || credits[0].Level != 1 {
		t.Fatalf("unexpected credit: %+v", credits[0])
	}

	aAfter, err := env.userSvc.GetUser(ctx, a.ID)
	if err != nil {
		t.Fatalf("get a: %v", err)
	}
	requireClose(t, 12, aAfter.Balance, "referrer balance in cycle")

	bAfter, err := env.userSvc.GetUser(ctx, b.ID)
	if err != nil {
		t.Fatalf("get b: %v", err)
	}
	requireClose(t, 100, bAfter.Balance, "depositor balance in cycle")
}

func TestApproveDeposit_DanglingReferralCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "nosuchcode")
	deposit, err := env.depositSvc.Submit(ctx, user, 100, "0x"+uuid.NewString())
	if err != nil {
		t.Fatalf("submit deposit: %v", err)
	}

	_, credits, err := env.adminSvc.ApproveDeposit(ctx, deposit.ID)
	if err != nil {
		t.Fatalf("approve deposit: %v", err)
	}
	if len(credits) != 0 {
		t.Fatalf("dangling code must pay no commission, got %d credits", len(credits))
	}
}

func TestWithdrawal_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	env.fund(t, user, 100)

	// Requesting reserves immediately.
	w1, err := env.withdrawalSvc.Request(ctx, user.ID, 25, "addr-1", testPassword)
	if err != nil {
		t.Fatalf("request withdrawal: %v", err)
	}
	afterRequest, _ := env.userSvc.GetUser(ctx, user.ID)
	requireClose(t, 75, afterRequest.Balance, "balance after request")

	// Rejection restores exactly the reserve.
	if _, err := env.adminSvc.RejectWithdrawal(ctx, w1.ID); err != nil {
		t.Fatalf("reject withdrawal: %v", err)
	}
	afterReject, _ := env.userSvc.GetUser(ctx, user.ID)
	requireClose(t, 100, afterReject.Balance, "balance after rejection")

	// Completion keeps the deduction and counts it as withdrawn.
	w2, err := env.withdrawalSvc.Request(ctx, user.ID, 25, "addr-1", testPassword)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if _, err := env.adminSvc.MarkWithdrawalProcessing(ctx, w2.ID); err != nil {
		t.Fatalf("mark processing: %v", err)
	}
	if _, err := env.adminSvc.CompleteWithdrawal(ctx, w2.ID); err != nil {
		t.Fatalf("complete withdrawal: %v", err)
	}
	final, _ := env.userSvc.GetUser(ctx, user.ID)
	requireClose(t, 75, final.Balance, "balance after completion")
	requireClose(t, 25, final.TotalWithdrawn, "total withdrawn")

	// Double resolution is an error, never a silent re-application.
	if _, err := env.adminSvc.CompleteWithdrawal(ctx, w2.ID); !errors.Is(err, repository.ErrWithdrawalResolved) {
		t.Fatalf("expected ErrWithdrawalResolved, got %v", err)
	}
	if _, err := env.adminSvc.RejectWithdrawal(ctx, w2.ID); !errors.Is(err, repository.ErrWithdrawalResolved) {
		t.Fatalf("expected ErrWithdrawalResolved, got %v", err)
	}
}

func TestWithdrawal_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	env.fund(t, user, 100)

	if _, err := env.withdrawalSvc.Request(ctx, user.ID, 10, "addr", testPassword); !errors.Is(err, ErrWithdrawalTooSmall) {
		t.Fatalf("expected ErrWithdrawalTooSmall, got %v", err)
	}
	if _, err := env.withdrawalSvc.Request(ctx, user.ID, 25, "", testPassword); !errors.Is(err, ErrMissingWalletAddress) {
		t.Fatalf("expected ErrMissingWalletAddress, got %v", err)
	}
	if _, err := env.withdrawalSvc.Request(ctx, user.ID, 25, "addr", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.withdrawalSvc.Request(ctx, user.ID, 1000, "addr", testPassword); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// Nothing above should have moved money.
	after, _ := env.userSvc.GetUser(ctx, user.ID)
	requireClose(t, 100, after.Balance, "balance after rejected requests")
}

func TestDeposit_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	if _, err := env.depositSvc.Submit(ctx, user, 10, "0xabc"); !errors.Is(err, ErrDepositTooSmall) {
		t.Fatalf("expected ErrDepositTooSmall, got %v", err)
	}
	if _, err := env.depositSvc.Submit(ctx, user, 100, "  "); !errors.Is(err, ErrMissingTxHash) {
		t.Fatalf("expected ErrMissingTxHash, got %v", err)
	}
}

func TestReconcile_ConcurrentExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	deposit := env.fund(t, user, 100)
	env.backdate(t, user.ID, deposit.ID, 72*time.Hour, 72*time.Hour)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := env.balanceSvc.Reconcile(ctx, user.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent reconcile: %v", err)
	}

	// The 3-day delta must have been applied exactly once in total.
	final, err := env.userSvc.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	requireClose(t, 105.40, final.Balance, "balance after concurrent reconciles")
}

func TestRegister_CreatesReferralEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	grandparent := env.register(t, "")
	parent := env.register(t, grandparent.ReferralCode)
	child := env.register(t, parent.ReferralCode)

	// Both edges exist as soon as registration returns, with nothing
	// accumulated yet.
	parentEdges, err := env.referralSvc.GetReferrals(ctx, parent.ID)
	if err != nil {
		t.Fatalf("parent edges: %v", err)
	}
	if len(parentEdges) != 1 || parentEdges[0].ReferredID != child.ID || parentEdges[0].Level != 1 {
		t.Fatalf("unexpected parent edges: %+v", parentEdges)
	}
	requireClose(t, 0, parentEdges[0].Commission, "fresh edge commission")

	grandEdges, err := env.referralSvc.GetReferrals(ctx, grandparent.ID)
	if err != nil {
		t.Fatalf("grandparent edges: %v", err)
	}
	if len(grandEdges) != 2 {
		t.Fatalf("expected level-1 and level-2 edges, got %d", len(grandEdges))
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.register(t, "")
	if _, err := env.userSvc.Register(ctx, user.Email, testPassword, ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

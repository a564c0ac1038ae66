package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/artuino0/personal-finance-app-sub000/internal/domain"
	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// =============================================================================
// In-memory Store
// =============================================================================

// fakeStore is an in-memory repository.Store. ExecTx holds a store-wide
// lock for the whole transaction and restores a snapshot when fn fails, so
// transactions are serialized and atomic.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	state storeState

	// errs makes the named method fail with the given error.
	errs map[string]error
	// calls counts invocations per method name.
	calls map[string]int

	now func() time.Time
}

type storeState struct {
	profiles     map[uuid.UUID]repository.Profile
	accounts     []repository.Account
	recurring    []repository.RecurringService
	credits      []repository.Credit
	transactions []repository.Transaction
	shares       []repository.AccountShare
	permissions  []repository.SharePermission
	invitations  []repository.ShareInvitation
	analyses     []repository.AiAnalysisHistory
}

func (s storeState) clone() storeState {
	profiles := make(map[uuid.UUID]repository.Profile, len(s.profiles))
	for k, v := range s.profiles {
		profiles[k] = v
	}
	return storeState{
		profiles:     profiles,
		accounts:     append([]repository.Account(nil), s.accounts...),
		recurring:    append([]repository.RecurringService(nil), s.recurring...),
		credits:      append([]repository.Credit(nil), s.credits...),
		transactions: append([]repository.Transaction(nil), s.transactions...),
		shares:       append([]repository.AccountShare(nil), s.shares...),
		permissions:  append([]repository.SharePermission(nil), s.permissions...),
		invitations:  append([]repository.ShareInvitation(nil), s.invitations...),
		analyses:     append([]repository.AiAnalysisHistory(nil), s.analyses...),
	}
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{
		state: storeState{profiles: make(map[uuid.UUID]repository.Profile)},
		errs:  make(map[string]error),
		calls: make(map[string]int),
		now:   now,
	}
}

var _ repository.Store = (*fakeStore)(nil)

var errDuplicateKey = errors.New("duplicate key value violates unique constraint")

func (s *fakeStore) enter(method string) error {
	s.calls[method]++
	return s.errs[method]
}

func (s *fakeStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[method] = err
}

func (s *fakeStore) callCount(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

func (s *fakeStore) ExecTx(ctx context.Context, opts *sql.TxOptions, fn func(repository.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	if err := s.enter("ExecTx"); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.state = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// abortingStore aborts the commit of its first n transactions with a
// serialization failure. fn still runs, so the attempt does real work
// before it is rolled back.
type abortingStore struct {
	*fakeStore

	mu       sync.Mutex
	aborts   int
	attempts int

	// onAbort runs after an aborted attempt is rolled back.
	onAbort func()
}

func (s *abortingStore) ExecTx(ctx context.Context, opts *sql.TxOptions, fn func(repository.Querier) error) error {
	s.mu.Lock()
	s.attempts++
	abort := s.aborts > 0
	if abort {
		s.aborts--
	}
	s.mu.Unlock()

	err := s.fakeStore.ExecTx(ctx, opts, func(q repository.Querier) error {
		if err := fn(q); err != nil {
			return err
		}
		if abort {
			return fmt.Errorf("commit tx: %w", &pgconn.PgError{
				Code:    "40001",
				Message: "could not serialize access due to read/write dependencies among transactions",
			})
		}
		return nil
	})
	if abort && s.onAbort != nil {
		s.onAbort()
	}
	return err
}

func (s *abortingStore) txAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// =============================================================================
// Seeding helpers
// =============================================================================

func (s *fakeStore) addProfile(tier domain.SubscriptionTier, email string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.profiles[id] = repository.Profile{
		ID:                 id,
		Email:              email,
		SubscriptionTier:   string(tier),
		SubscriptionStatus: string(domain.SubscriptionStatusActive),
		CreatedAt:          s.now(),
		UpdatedAt:          s.now(),
	}
	return id
}

func (s *fakeStore) setTier(id uuid.UUID, tier domain.SubscriptionTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.profiles[id]
	p.SubscriptionTier = string(tier)
	s.state.profiles[id] = p
}

func (s *fakeStore) addAccounts(userID uuid.UUID, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < n; i++ {
		s.state.accounts = append(s.state.accounts, repository.Account{
			ID: uuid.New(), UserID: userID, Name: "seed", Currency: "MXN", IsActive: true, CreatedAt: s.now(),
		})
	}
}

func (s *fakeStore) addShare(ownerID, sharedWithID uuid.UUID, perms domain.PermissionMap) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.shares = append(s.state.shares, repository.AccountShare{
		ID: id, OwnerID: ownerID, SharedWithID: sharedWithID, IsActive: true, CreatedAt: s.now(),
	})
	for rt, p := range perms {
		s.state.permissions = append(s.state.permissions, repository.SharePermission{
			ID: uuid.New(), ShareID: id, ResourceType: string(rt),
			CanView: p.View, CanCreate: p.Create, CanEdit: p.Edit, CanDelete: p.Delete,
		})
	}
	return id
}

func (s *fakeStore) addPendingInvitation(ownerID uuid.UUID, email string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.invitations = append(s.state.invitations, repository.ShareInvitation{
		ID: uuid.New(), OwnerID: ownerID, InvitedEmail: email, TokenHash: uuid.NewString(),
		Permissions: []byte(`{"transactions":{"can_view":true}}`),
		Status:      string(domain.InvitationStatusPending), ExpiresAt: expiresAt, CreatedAt: s.now(),
	})
}

func (s *fakeStore) addAnalysis(userID uuid.UUID, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.analyses = append(s.state.analyses, repository.AiAnalysisHistory{
		ID: uuid.New(), UserID: userID, Tier: "free", CreatedAt: createdAt,
		PeriodStart: createdAt.AddDate(0, -1, 0), PeriodEnd: createdAt,
	})
}

func (s *fakeStore) addTransaction(userID uuid.UUID, typ, category string, cents int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.transactions = append(s.state.transactions, repository.Transaction{
		ID: uuid.New(), UserID: userID, Type: typ, Category: category, AmountCents: cents, OccurredAt: at,
	})
}

func (s *fakeStore) activeShareCount(ownerID, sharedWithID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sh := range s.state.shares {
		if sh.OwnerID == ownerID && sh.SharedWithID == sharedWithID && sh.IsActive {
			n++
		}
	}
	return n
}

func (s *fakeStore) permissionCount(shareID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.state.permissions {
		if p.ShareID == shareID {
			n++
		}
	}
	return n
}

func (s *fakeStore) invitationStatus(ownerID uuid.UUID, email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.state.invitations {
		if inv.OwnerID == ownerID && inv.InvitedEmail == email {
			return inv.Status
		}
	}
	return ""
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// =============================================================================
// Profiles
// =============================================================================

func (s *fakeStore) GetProfileByID(ctx context.Context, id uuid.UUID) (repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetProfileByID"); err != nil {
		return repository.Profile{}, err
	}
	p, ok := s.state.profiles[id]
	if !ok {
		return repository.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *fakeStore) GetProfileForUpdate(ctx context.Context, id uuid.UUID) (repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetProfileForUpdate"); err != nil {
		return repository.Profile{}, err
	}
	p, ok := s.state.profiles[id]
	if !ok {
		return repository.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *fakeStore) GetProfileByStripeCustomerID(ctx context.Context, customerID sql.NullString) (repository.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetProfileByStripeCustomerID"); err != nil {
		return repository.Profile{}, err
	}
	for _, p := range s.state.profiles {
		if p.StripeCustomerID.Valid && p.StripeCustomerID.String == customerID.String {
			return p, nil
		}
	}
	return repository.Profile{}, sql.ErrNoRows
}

func (s *fakeStore) SetProfileStripeCustomerID(ctx context.Context, arg repository.SetProfileStripeCustomerIDParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetProfileStripeCustomerID"); err != nil {
		return 0, err
	}
	p, ok := s.state.profiles[arg.ID]
	if !ok {
		return 0, nil
	}
	p.StripeCustomerID = arg.StripeCustomerID
	p.UpdatedAt = s.now()
	s.state.profiles[arg.ID] = p
	return 1, nil
}

func (s *fakeStore) UpdateProfileSubscription(ctx context.Context, arg repository.UpdateProfileSubscriptionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateProfileSubscription"); err != nil {
		return err
	}
	p, ok := s.state.profiles[arg.ID]
	if !ok {
		return nil
	}
	p.SubscriptionTier = arg.SubscriptionTier
	p.SubscriptionStatus = arg.SubscriptionStatus
	p.StripeSubscriptionID = arg.StripeSubscriptionID
	p.UpdatedAt = s.now()
	s.state.profiles[arg.ID] = p
	return nil
}

// =============================================================================
// Resources
// =============================================================================

func (s *fakeStore) CountAccountsByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountAccountsByUserID"); err != nil {
		return 0, err
	}
	var n int64
	for _, a := range s.state.accounts {
		if a.UserID == userID && a.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountActiveRecurringServicesByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountActiveRecurringServicesByUserID"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range s.state.recurring {
		if r.UserID == userID && r.IsActive {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountActiveCreditsByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountActiveCreditsByUserID"); err != nil {
		return 0, err
	}
	var n int64
	for _, c := range s.state.credits {
		if c.UserID == userID && c.Status == "active" {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountSharedUsersByOwnerID(ctx context.Context, arg repository.CountSharedUsersByOwnerIDParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountSharedUsersByOwnerID"); err != nil {
		return 0, err
	}
	var n int64
	for _, sh := range s.state.shares {
		if sh.OwnerID == arg.OwnerID && sh.IsActive {
			n++
		}
	}
	for _, inv := range s.state.invitations {
		if inv.OwnerID == arg.OwnerID && inv.Status == "pending" && inv.ExpiresAt.After(arg.Now) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CreateAccount(ctx context.Context, arg repository.CreateAccountParams) (repository.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateAccount"); err != nil {
		return repository.Account{}, err
	}
	a := repository.Account{
		ID: uuid.New(), UserID: arg.UserID, Name: arg.Name, Currency: arg.Currency, IsActive: true, CreatedAt: s.now(),
	}
	s.state.accounts = append(s.state.accounts, a)
	return a, nil
}

func (s *fakeStore) CreateRecurringService(ctx context.Context, arg repository.CreateRecurringServiceParams) (repository.RecurringService, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateRecurringService"); err != nil {
		return repository.RecurringService{}, err
	}
	r := repository.RecurringService{
		ID: uuid.New(), UserID: arg.UserID, Name: arg.Name, AmountCents: arg.AmountCents, IsActive: true, CreatedAt: s.now(),
	}
	s.state.recurring = append(s.state.recurring, r)
	return r, nil
}

func (s *fakeStore) CreateCredit(ctx context.Context, arg repository.CreateCreditParams) (repository.Credit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateCredit"); err != nil {
		return repository.Credit{}, err
	}
	c := repository.Credit{
		ID: uuid.New(), UserID: arg.UserID, Name: arg.Name, AmountCents: arg.AmountCents, Status: "active", CreatedAt: s.now(),
	}
	s.state.credits = append(s.state.credits, c)
	return c, nil
}

// =============================================================================
// Shares
// =============================================================================

func (s *fakeStore) CreateShare(ctx context.Context, arg repository.CreateShareParams) (repository.AccountShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateShare"); err != nil {
		return repository.AccountShare{}, err
	}
	for _, sh := range s.state.shares {
		if sh.OwnerID == arg.OwnerID && sh.SharedWithID == arg.SharedWithID && sh.IsActive {
			return repository.AccountShare{}, errDuplicateKey
		}
	}
	sh := repository.AccountShare{
		ID: uuid.New(), OwnerID: arg.OwnerID, SharedWithID: arg.SharedWithID, IsActive: true, CreatedAt: s.now(),
	}
	s.state.shares = append(s.state.shares, sh)
	return sh, nil
}

func (s *fakeStore) DeactivateShare(ctx context.Context, arg repository.DeactivateShareParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeactivateShare"); err != nil {
		return 0, err
	}
	for i, sh := range s.state.shares {
		if sh.ID == arg.ID && sh.OwnerID == arg.OwnerID && sh.IsActive {
			s.state.shares[i].IsActive = false
			s.state.shares[i].RevokedAt = sql.NullTime{Time: s.now(), Valid: true}
			return 1, nil
		}
	}
	return 0, nil
}

func (s *fakeStore) GetActiveShare(ctx context.Context, arg repository.GetActiveShareParams) (repository.AccountShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetActiveShare"); err != nil {
		return repository.AccountShare{}, err
	}
	for _, sh := range s.state.shares {
		if sh.OwnerID == arg.OwnerID && sh.SharedWithID == arg.SharedWithID && sh.IsActive {
			return sh, nil
		}
	}
	return repository.AccountShare{}, sql.ErrNoRows
}

func (s *fakeStore) GetShareByID(ctx context.Context, id uuid.UUID) (repository.AccountShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetShareByID"); err != nil {
		return repository.AccountShare{}, err
	}
	for _, sh := range s.state.shares {
		if sh.ID == id {
			return sh, nil
		}
	}
	return repository.AccountShare{}, sql.ErrNoRows
}

func (s *fakeStore) ListSharesByOwner(ctx context.Context, ownerID uuid.UUID) ([]repository.AccountShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListSharesByOwner"); err != nil {
		return nil, err
	}
	var out []repository.AccountShare
	for _, sh := range s.state.shares {
		if sh.OwnerID == ownerID {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveSharesBySharedWith(ctx context.Context, sharedWithID uuid.UUID) ([]repository.AccountShare, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListActiveSharesBySharedWith"); err != nil {
		return nil, err
	}
	var out []repository.AccountShare
	for _, sh := range s.state.shares {
		if sh.SharedWithID == sharedWithID && sh.IsActive {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *fakeStore) GetSharePermission(ctx context.Context, arg repository.GetSharePermissionParams) (repository.SharePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetSharePermission"); err != nil {
		return repository.SharePermission{}, err
	}
	for _, p := range s.state.permissions {
		if p.ShareID == arg.ShareID && p.ResourceType == arg.ResourceType {
			return p, nil
		}
	}
	return repository.SharePermission{}, sql.ErrNoRows
}

func (s *fakeStore) ListSharePermissionsByShare(ctx context.Context, shareID uuid.UUID) ([]repository.SharePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListSharePermissionsByShare"); err != nil {
		return nil, err
	}
	var out []repository.SharePermission
	for _, p := range s.state.permissions {
		if p.ShareID == shareID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceType < out[j].ResourceType })
	return out, nil
}

func (s *fakeStore) ListSharePermissionsByTypes(ctx context.Context, arg repository.ListSharePermissionsByTypesParams) ([]repository.SharePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListSharePermissionsByTypes"); err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(arg.ResourceTypes))
	for _, t := range arg.ResourceTypes {
		wanted[t] = true
	}
	var out []repository.SharePermission
	for _, p := range s.state.permissions {
		if p.ShareID == arg.ShareID && wanted[p.ResourceType] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) UpsertSharePermission(ctx context.Context, arg repository.UpsertSharePermissionParams) (repository.SharePermission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpsertSharePermission"); err != nil {
		return repository.SharePermission{}, err
	}
	for i, p := range s.state.permissions {
		if p.ShareID == arg.ShareID && p.ResourceType == arg.ResourceType {
			p.CanView, p.CanCreate, p.CanEdit, p.CanDelete = arg.CanView, arg.CanCreate, arg.CanEdit, arg.CanDelete
			s.state.permissions[i] = p
			return p, nil
		}
	}
	p := repository.SharePermission{
		ID: uuid.New(), ShareID: arg.ShareID, ResourceType: arg.ResourceType,
		CanView: arg.CanView, CanCreate: arg.CanCreate, CanEdit: arg.CanEdit, CanDelete: arg.CanDelete,
	}
	s.state.permissions = append(s.state.permissions, p)
	return p, nil
}

// =============================================================================
// Invitations
// =============================================================================

func (s *fakeStore) CreateInvitation(ctx context.Context, arg repository.CreateInvitationParams) (repository.ShareInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateInvitation"); err != nil {
		return repository.ShareInvitation{}, err
	}
	for _, inv := range s.state.invitations {
		if inv.TokenHash == arg.TokenHash {
			return repository.ShareInvitation{}, errDuplicateKey
		}
	}
	inv := repository.ShareInvitation{
		ID: uuid.New(), OwnerID: arg.OwnerID, InvitedEmail: arg.InvitedEmail, TokenHash: arg.TokenHash,
		Permissions: arg.Permissions, Status: "pending", ExpiresAt: arg.ExpiresAt, CreatedAt: s.now(),
	}
	s.state.invitations = append(s.state.invitations, inv)
	return inv, nil
}

func (s *fakeStore) GetInvitationByTokenHashForUpdate(ctx context.Context, tokenHash string) (repository.ShareInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetInvitationByTokenHashForUpdate"); err != nil {
		return repository.ShareInvitation{}, err
	}
	for _, inv := range s.state.invitations {
		if inv.TokenHash == tokenHash {
			return inv, nil
		}
	}
	return repository.ShareInvitation{}, sql.ErrNoRows
}

func (s *fakeStore) ListInvitationsByOwner(ctx context.Context, ownerID uuid.UUID) ([]repository.ShareInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListInvitationsByOwner"); err != nil {
		return nil, err
	}
	var out []repository.ShareInvitation
	for _, inv := range s.state.invitations {
		if inv.OwnerID == ownerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateInvitationStatus(ctx context.Context, arg repository.UpdateInvitationStatusParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateInvitationStatus"); err != nil {
		return 0, err
	}
	for i, inv := range s.state.invitations {
		if inv.ID == arg.ID && inv.Status == "pending" {
			inv.Status = arg.Status
			inv.RespondedBy = arg.RespondedBy
			inv.RespondedAt = sql.NullTime{Time: s.now(), Valid: true}
			s.state.invitations[i] = inv
			return 1, nil
		}
	}
	return 0, nil
}

func (s *fakeStore) DeleteExpiredInvitations(ctx context.Context, expiresAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteExpiredInvitations"); err != nil {
		return 0, err
	}
	kept := s.state.invitations[:0]
	var n int64
	for _, inv := range s.state.invitations {
		if inv.Status == "pending" && inv.ExpiresAt.Before(expiresAt) {
			n++
			continue
		}
		kept = append(kept, inv)
	}
	s.state.invitations = kept
	return n, nil
}

// =============================================================================
// Analyses
// =============================================================================

func (s *fakeStore) CountAnalysesSince(ctx context.Context, arg repository.CountAnalysesSinceParams) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountAnalysesSince"); err != nil {
		return 0, err
	}
	var n int64
	for _, a := range s.state.analyses {
		if a.UserID == arg.UserID && !a.CreatedAt.Before(arg.CreatedAt) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) GetLatestAnalysis(ctx context.Context, userID uuid.UUID) (repository.AiAnalysisHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetLatestAnalysis"); err != nil {
		return repository.AiAnalysisHistory{}, err
	}
	var latest *repository.AiAnalysisHistory
	for i := range s.state.analyses {
		a := &s.state.analyses[i]
		if a.UserID == userID && (latest == nil || a.CreatedAt.After(latest.CreatedAt)) {
			latest = a
		}
	}
	if latest == nil {
		return repository.AiAnalysisHistory{}, sql.ErrNoRows
	}
	return *latest, nil
}

func (s *fakeStore) CreateAnalysis(ctx context.Context, arg repository.CreateAnalysisParams) (repository.AiAnalysisHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CreateAnalysis"); err != nil {
		return repository.AiAnalysisHistory{}, err
	}
	a := repository.AiAnalysisHistory{
		ID: uuid.New(), UserID: arg.UserID, Tier: arg.Tier, PeriodStart: arg.PeriodStart,
		PeriodEnd: arg.PeriodEnd, Response: arg.Response, CreatedAt: arg.CreatedAt,
	}
	s.state.analyses = append(s.state.analyses, a)
	return a, nil
}

func (s *fakeStore) ListAnalysesByUser(ctx context.Context, arg repository.ListAnalysesByUserParams) ([]repository.AiAnalysisHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListAnalysesByUser"); err != nil {
		return nil, err
	}
	var out []repository.AiAnalysisHistory
	for _, a := range s.state.analyses {
		if a.UserID == arg.UserID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > int(arg.Limit) {
		out = out[:arg.Limit]
	}
	return out, nil
}

func (s *fakeStore) SummarizeTransactionsByCategory(ctx context.Context, arg repository.SummarizeTransactionsByCategoryParams) ([]repository.SummarizeTransactionsByCategoryRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SummarizeTransactionsByCategory"); err != nil {
		return nil, err
	}
	type key struct{ typ, category string }
	totals := make(map[key]*repository.SummarizeTransactionsByCategoryRow)
	var order []key
	for _, t := range s.state.transactions {
		if t.UserID != arg.UserID || t.OccurredAt.Before(arg.OccurredAt) || !t.OccurredAt.Before(arg.OccurredAt_2) {
			continue
		}
		k := key{t.Type, t.Category}
		row, ok := totals[k]
		if !ok {
			row = &repository.SummarizeTransactionsByCategoryRow{Type: t.Type, Category: t.Category}
			totals[k] = row
			order = append(order, k)
		}
		row.TotalCents += t.AmountCents
		row.TxCount++
	}
	out := make([]repository.SummarizeTransactionsByCategoryRow, 0, len(order))
	for _, k := range order {
		out = append(out, *totals[k])
	}
	return out, nil
}

// =============================================================================
// Clock
// =============================================================================

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

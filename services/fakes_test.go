package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"token-airdrop-system/ledger"
	"token-airdrop-system/models"
)

// ---- in-memory account store ----

type memStore struct {
	users      map[string]*models.User
	referrals  []models.ReferralEntry
	failAppend bool
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*models.User)}
}

func (m *memStore) addUser(u models.User) {
	cp := u
	m.users[u.ID] = &cp
}

func (m *memStore) entriesFor(referrerID string) []models.ReferralEntry {
	var out []models.ReferralEntry
	for _, e := range m.referrals {
		if e.ReferrerID == referrerID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) Atomically(ctx context.Context, fn func(tx AccountTx) error) error {
	snapUsers := make(map[string]*models.User, len(m.users))
	for k, v := range m.users {
		cp := *v
		snapUsers[k] = &cp
	}
	snapRefs := append([]models.ReferralEntry(nil), m.referrals...)

	if err := fn(&memTx{s: m}); err != nil {
		m.users = snapUsers
		m.referrals = snapRefs
		return err
	}
	return nil
}

type memTx struct {
	s *memStore
}

func (t *memTx) UserByID(id string) (*models.User, error) {
	u, ok := t.s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (t *memTx) UserByReferralCode(code string) (*models.User, error) {
	for _, u := range t.s.users {
		if u.ReferralCode == code {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (t *memTx) CreateUser(u *models.User) error {
	cp := *u
	t.s.users[u.ID] = &cp
	return nil
}

func (t *memTx) CreditBalance(userID string, amount float64) error {
	u, ok := t.s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Balance += amount
	return nil
}

func (t *memTx) AppendReferral(referrerID, referredID string, level int) error {
	if t.s.failAppend {
		return errors.New("append failed")
	}
	t.s.referrals = append(t.s.referrals, models.ReferralEntry{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Level:      level,
	})
	return nil
}

func (t *memTx) SetVerified(userID string) error {
	u, ok := t.s.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.Verified = true
	return nil
}

// ---- identity provider ----

type fakeIdentity struct {
	nextID     int
	created    []string
	deleted    []string
	failCreate bool
}

func (f *fakeIdentity) CreateIdentity(ctx context.Context, email, password string) (string, error) {
	if f.failCreate {
		return "", errors.New("identity service unavailable")
	}
	f.nextID++
	id := fmt.Sprintf("uid-%d", f.nextID)
	f.created = append(f.created, id)
	return id, nil
}

func (f *fakeIdentity) DeleteIdentity(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

// ---- referral reader ----

type fakeReader struct {
	mu         sync.Mutex
	ids        map[string][]string
	verified   map[string]bool
	chunkSizes []int
}

func (f *fakeReader) ReferralIDs(ctx context.Context, userID string) ([]string, error) {
	return f.ids[userID], nil
}

func (f *fakeReader) CountVerified(ctx context.Context, ids []string) (int, error) {
	f.mu.Lock()
	f.chunkSizes = append(f.chunkSizes, len(ids))
	f.mu.Unlock()

	n := 0
	for _, id := range ids {
		if f.verified[id] {
			n++
		}
	}
	return n, nil
}

// ---- settlement store ----

type fakeSettlementStore struct {
	mu         sync.Mutex
	users      []models.User
	commits    []SettlementCommit
	failCommit map[string]bool
}

func (f *fakeSettlementStore) EligibleUsers(ctx context.Context, limit int) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]models.User(nil), f.users...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSettlementStore) CommitPayout(ctx context.Context, c SettlementCommit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCommit[c.UserID] {
		return errors.New("commit failed")
	}
	f.commits = append(f.commits, c)
	for i := range f.users {
		if f.users[i].ID == c.UserID {
			f.users[i].Balance -= c.Amount
			if f.users[i].Balance < 0 {
				f.users[i].Balance = 0
			}
			f.users[i].LastVerifiedCount = c.VerifiedCount
			f.users[i].BonusPaid = c.BonusEarned
		}
	}
	return nil
}

func (f *fakeSettlementStore) userByID(id string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return models.User{}
}

// ---- ledger gateway ----

type fakeGateway struct {
	mu          sync.Mutex
	notOptedIn  map[string]bool // by address
	failSubmit  map[string]bool // by address
	failConfirm map[string]bool // by address
	submits     []string        // addresses, in submission order
	inflight    int
	maxInflight int

	feeInvalid  bool   // VerifyFeePayment reports the fee as not paid
	onFeeVerify func() // runs during VerifyFeePayment, before returning
}

func (f *fakeGateway) IsOptedIn(ctx context.Context, address string, assetID uint64) (bool, error) {
	return !f.notOptedIn[address], nil
}

func (f *fakeGateway) SubmitTransfer(ctx context.Context, to string, assetID uint64, decimals uint32, amount float64, note string) (string, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	fail := f.failSubmit[to]
	if !fail {
		f.submits = append(f.submits, to)
	}
	f.mu.Unlock()

	// Let batch peers overlap so maxInflight is meaningful.
	time.Sleep(2 * time.Millisecond)

	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()

	if fail {
		return "", errors.New("submit rejected")
	}
	return "tx-" + to, nil
}

func (f *fakeGateway) WaitForConfirmation(ctx context.Context, txID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for addr := range f.failConfirm {
		if txID == "tx-"+addr {
			return fmt.Errorf("%w: %s", ledger.ErrConfirmationTimeout, txID)
		}
	}
	return nil
}

func (f *fakeGateway) VerifyFeePayment(ctx context.Context, sender, txID string, expectedAmount uint64) (bool, error) {
	if f.onFeeVerify != nil {
		f.onFeeVerify()
	}
	return !f.feeInvalid, nil
}

func (f *fakeGateway) submitted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submits...)
}

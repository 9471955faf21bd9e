package sandbox

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adcraft-ai/adcraft/pkg/studio/api"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// Credit prices per generation stage.
const (
	PrimaryCost             int64 = 5
	SecondaryCostPerVariant int64 = 2
)

// SavedCreative is one library entry in the emulated account.
type SavedCreative struct {
	ID       string
	ToolKind tools.Kind
	Asset    tools.Asset
	SavedAt  time.Time
}

// Account is the emulated customer account: a credit balance, the
// variants the server has issued so secondary requests can resolve
// their selections, and the saved creatives library. Everything lives
// in memory and resets with the process.
type Account struct {
	mu       sync.Mutex
	balance  int64
	quota    int64
	variants map[string]tools.Variant
	saved    []SavedCreative
}

// NewAccount seeds an account from the credits config.
func NewAccount(cfg CreditsConfig) *Account {
	return &Account{
		balance:  cfg.StartingBalance,
		quota:    cfg.MonthlyQuota,
		variants: make(map[string]tools.Variant),
	}
}

// Charge atomically deducts cost and returns the new balance. It fails
// without deducting when the balance cannot cover the cost.
func (a *Account) Charge(cost int64) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.balance < cost {
		return a.balance, fmt.Errorf("insufficient credits: need %d, have %d", cost, a.balance)
	}
	a.balance -= cost
	return a.balance, nil
}

// Refund returns cost to the balance after a charged operation failed.
func (a *Account) Refund(cost int64) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.balance += cost
	return a.balance
}

// Balance returns the current credit balance.
func (a *Account) Balance() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// CreditBalance reports the account state in the wire shape.
func (a *Account) CreditBalance() api.CreditBalance {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	renewal := time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return api.CreditBalance{
		Balance:            a.balance,
		MonthlyQuota:       a.quota,
		SubscriptionStatus: api.SubscriptionActive,
		RenewalDate:        &renewal,
		LastSyncedAt:       now,
	}
}

// RememberVariants records issued primary results so a later secondary
// request can resolve its selection by ID.
func (a *Account) RememberVariants(variants []tools.Variant) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, v := range variants {
		a.variants[v.ID] = v
	}
}

// ResolveVariants maps selected primary IDs back to the issued
// variants, in the order given. Unknown IDs are an error.
func (a *Account) ResolveVariants(ids []string) ([]tools.Variant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]tools.Variant, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		v, ok := a.variants[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		out = append(out, v)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown primary result ids: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}

// SaveAssets stores assets in the library and returns their new ids.
func (a *Account) SaveAssets(kind tools.Kind, assets []tools.Asset) []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	ids := make([]string, 0, len(assets))
	for _, asset := range assets {
		id := uuid.NewString()
		a.saved = append(a.saved, SavedCreative{
			ID:       id,
			ToolKind: kind,
			Asset:    asset,
			SavedAt:  now,
		})
		ids = append(ids, id)
	}
	return ids
}

// Saved returns the library entries, newest first.
func (a *Account) Saved() []SavedCreative {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]SavedCreative, len(a.saved))
	copy(out, a.saved)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out
}

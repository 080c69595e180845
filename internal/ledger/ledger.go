package ledger

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	interfaces "github.com/sheikh-saqib/personal-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/personal-finance-ledger/internal/storage"
)

// Ledger is the service every balance-affecting operation goes through.
// It holds the storage layer and one mutex per account, so that two operations on the
// same account never interleave their read-modify-write of the balance or a rule's marker.
type Ledger struct {
	store     interfaces.LedgerStore   // any storage implementation (memory, postgres)
	publisher interfaces.EventPublisher // optional; nil disables events
	log       zerolog.Logger

	muMap map[string]*sync.Mutex // stores the *sync.Mutex for each account in a map
	mapMu sync.Mutex             // protects the muMap itself
}

// NewLedger creates a Ledger over store. publisher may be nil.
func NewLedger(store interfaces.LedgerStore, publisher interfaces.EventPublisher, log zerolog.Logger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		log:       log,
		muMap:     make(map[string]*sync.Mutex),
	}
}

func (l *Ledger) getAccountLock(accountId string) *sync.Mutex {

	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountId]; !exists {
		l.muMap[accountId] = &sync.Mutex{}
	}
	return l.muMap[accountId]
}

// withAccount runs fn while holding accountId's lock. When fn fails because the account
// does not exist, the lock entry is dropped again. Ids are assigned by the store and a
// deleted account never comes back, so nothing can still need that lock.
func (l *Ledger) withAccount(ctx context.Context, accountId string, fn func() error) error {
	err := func() error {
		mu := l.getAccountLock(accountId)
		mu.Lock()
		defer mu.Unlock()
		return fn()
	}()

	if errors.Is(err, storage.ErrNotFound) {
		if _, getErr := l.store.GetAccount(ctx, accountId); errors.Is(getErr, storage.ErrNotFound) {
			l.dropAccountLock(accountId)
		}
	}
	return err
}

func (l *Ledger) dropAccountLock(accountId string) {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()
	delete(l.muMap, accountId)
}

// publish sends an event after its ledger change has committed. Failures are logged only:
// the ledger is the source of truth and is never rolled back for a lost event.
func (l *Ledger) publish(ctx context.Context, topic, key string, event any) {
	if l.publisher == nil {
		return
	}
	if err := l.publisher.Publish(ctx, topic, key, event); err != nil {
		l.log.Warn().Err(err).Str("topic", topic).Str("account_id", key).Msg("failed to publish event")
	}
}

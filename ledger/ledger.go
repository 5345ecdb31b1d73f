package ledger

import (
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/studyspark/StudySparkApi/models"
	"github.com/studyspark/StudySparkApi/utils"
)

// FreeQuestionLimit: questions with id at or below this are answerable
// for free on any topic, credits or not.
const FreeQuestionLimit = 3

var orderIDRe = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

// Store is the persistence the ledger writes through.
type Store interface {
	SaveEntitlement(snapshot models.EntitlementSnapshot) error
	RecordOrder(order models.PaymentOrder) error
}

// Ledger owns the topic credit balance, the used-topic grandfather set
// and the payment anti-replay set. It is the single writer: all checks
// and mutations run under one mutex, so authorize+mark and
// verify+append are atomic against each other.
type Ledger struct {
	mu sync.Mutex

	balance    int
	usedTopics map[string]bool
	usedOrders map[string]bool

	providerKey func() bool

	store Store
}

// New builds a ledger from a persisted snapshot. providerKey reports
// whether a usable provider API key is configured; key holders bypass
// the quota entirely.
func New(snapshot models.EntitlementSnapshot, usedOrders []string, providerKey func() bool, store Store) *Ledger {
	l := &Ledger{
		balance:     snapshot.CreditBalance,
		usedTopics:  make(map[string]bool, len(snapshot.UsedTopics)),
		usedOrders:  make(map[string]bool, len(usedOrders)),
		providerKey: providerKey,
		store:       store,
	}
	for _, t := range snapshot.UsedTopics {
		l.usedTopics[t] = true
	}
	for _, o := range usedOrders {
		l.usedOrders[o] = true
	}
	return l
}

// HasFreeAccess reports whether answering is free for this topic and
// question id. A configured provider key, the unlimited balance, a
// grandfathered topic, or a free-slot question id all qualify. The
// free-by-id rule always wins over topic locking.
func (l *Ledger) HasFreeAccess(topic string, questionID int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if questionID > 0 && questionID <= FreeQuestionLimit {
		return true
	}
	return l.topicFreeLocked(topic)
}

// topicFreeLocked: caller holds the mutex.
func (l *Ledger) topicFreeLocked(topic string) bool {
	if l.providerKey != nil && l.providerKey() {
		return true
	}
	if l.balance == models.UnlimitedCredits {
		return true
	}
	return l.usedTopics[topic]
}

// AuthorizeNewTopic decides whether a topic may start consuming
// answers. When authorization consumes a credit the topic is marked
// used in the same critical section, so two concurrent calls can never
// both take the last credit.
func (l *Ledger) AuthorizeNewTopic(topic string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.topicFreeLocked(topic) {
		return true
	}
	if l.balance >= 0 && len(l.usedTopics) < l.balance {
		l.markUsedLocked(topic)
		return true
	}
	return false
}

// MarkUsed adds a topic to the grandfather set. Idempotent.
func (l *Ledger) MarkUsed(topic string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.markUsedLocked(topic)
}

func (l *Ledger) markUsedLocked(topic string) {
	if l.usedTopics[topic] {
		return
	}
	l.usedTopics[topic] = true
	utils.LogLedger("Topic marked used: %q (%d/%s)", topic, len(l.usedTopics), l.balanceLabelLocked())
	l.persistLocked()
}

// VerifyPayment validates the order, rejects replays, then appends the
// order and credits the balance. Check-then-append is one critical
// section per ledger instance.
func (l *Ledger) VerifyPayment(orderID string, paidAmount, expectedAmount float64, pkg models.CreditPackage, method string) (*models.PaymentOrder, error) {
	if len(orderID) < 10 || len(orderID) > 50 {
		return nil, &models.ValidationError{Field: "order_id", Reason: "订单号长度应在10-50位之间"}
	}
	if !orderIDRe.MatchString(orderID) {
		return nil, &models.ValidationError{Field: "order_id", Reason: "订单号只能包含数字、字母、短横线和下划线"}
	}
	if math.Abs(paidAmount-expectedAmount) > 0.01 {
		return nil, &models.ValidationError{Field: "amount", Reason: "请输入正确的付款金额"}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.usedOrders[orderID] {
		return nil, &models.ReplayError{OrderID: orderID}
	}

	l.usedOrders[orderID] = true
	if pkg.Topics == models.UnlimitedCredits {
		// Unlimited dominates and is sticky.
		l.balance = models.UnlimitedCredits
	} else if l.balance != models.UnlimitedCredits {
		l.balance += pkg.Topics
	}

	order := &models.PaymentOrder{
		OrderID:   orderID,
		Amount:    expectedAmount,
		Package:   pkg.Key,
		Method:    method,
		Timestamp: time.Now(),
	}

	utils.LogLedger("Payment verified: order %s, package %s, balance now %s", orderID, pkg.Key, l.balanceLabelLocked())

	if l.store != nil {
		if err := l.store.RecordOrder(*order); err != nil {
			utils.LogError("Failed to persist order %s: %v", orderID, err)
		}
	}
	l.persistLocked()

	return order, nil
}

// Balance returns the current credit balance (-1 means unlimited).
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Remaining returns how many new topics the balance still covers, or
// UnlimitedCredits.
func (l *Ledger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance == models.UnlimitedCredits {
		return models.UnlimitedCredits
	}
	remaining := l.balance - len(l.usedTopics)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Snapshot exports the persisted ledger shape.
func (l *Ledger) Snapshot() models.EntitlementSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() models.EntitlementSnapshot {
	topics := make([]string, 0, len(l.usedTopics))
	for t := range l.usedTopics {
		topics = append(topics, t)
	}
	return models.EntitlementSnapshot{CreditBalance: l.balance, UsedTopics: topics}
}

// Restore overwrites ledger state from an import.
func (l *Ledger) Restore(snapshot models.EntitlementSnapshot, usedOrders []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = snapshot.CreditBalance
	l.usedTopics = make(map[string]bool, len(snapshot.UsedTopics))
	for _, t := range snapshot.UsedTopics {
		l.usedTopics[t] = true
	}
	for _, o := range usedOrders {
		l.usedOrders[o] = true
	}
	l.persistLocked()
}

func (l *Ledger) persistLocked() {
	if l.store == nil {
		return
	}
	if err := l.store.SaveEntitlement(l.snapshotLocked()); err != nil {
		utils.LogError("Failed to persist entitlement snapshot: %v", err)
	}
}

func (l *Ledger) balanceLabelLocked() string {
	if l.balance == models.UnlimitedCredits {
		return "无限"
	}
	return strconv.Itoa(l.balance)
}

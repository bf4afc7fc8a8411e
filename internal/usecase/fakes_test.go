package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", value, err)
	}
	return parsed
}

type fakePriceSource struct {
	mu      sync.Mutex
	prices  map[string]decimal.Decimal
	history map[string][]domain.Candle
	changes map[string]domain.Changes
}

func newFakePriceSource() *fakePriceSource {
	return &fakePriceSource{
		prices:  make(map[string]decimal.Decimal),
		history: make(map[string][]domain.Candle),
		changes: make(map[string]domain.Changes),
	}
}

func (f *fakePriceSource) setPrice(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = decimal.NewFromFloat(price)
}

func (f *fakePriceSource) clearPrice(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.prices, symbol)
}

func (f *fakePriceSource) GetPrice(_ context.Context, symbol string) domain.PriceSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	snap := domain.PriceSnapshot{Symbol: symbol, Name: symbol, CapturedAt: time.Now()}
	if price, ok := f.prices[symbol]; ok {
		value := price
		snap.Price = &value
	}
	return snap
}

func (f *fakePriceSource) GetChanges(_ context.Context, symbol string) domain.Changes {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.changes[strings.ToUpper(strings.TrimSpace(symbol))]
}

func (f *fakePriceSource) History(_ context.Context, symbol string) []domain.Candle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[strings.ToUpper(strings.TrimSpace(symbol))]
}

type fakeSearch struct {
	results []domain.SearchQuote
	err     error
	calls   int
}

func (f *fakeSearch) Search(_ context.Context, _ string) ([]domain.SearchQuote, error) {
	f.calls++
	return f.results, f.err
}

type fakeLLM struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeLLM) Ask(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts []domain.Alert
	nextID uint

	createErr error
	listErr   error
	markErr   error
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{nextID: 1}
}

func (f *fakeAlertRepo) Create(_ context.Context, alert *domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	alert.ID = f.nextID
	alert.CreatedAt = time.Now()
	f.nextID++
	f.alerts = append(f.alerts, *alert)
	return nil
}

func (f *fakeAlertRepo) ListPending(_ context.Context) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	pending := make([]domain.Alert, 0, len(f.alerts))
	for _, alert := range f.alerts {
		if !alert.Notified {
			pending = append(pending, alert)
		}
	}
	return pending, nil
}

func (f *fakeAlertRepo) ListByChat(_ context.Context, chatID int64) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	alerts := make([]domain.Alert, 0, len(f.alerts))
	for _, alert := range f.alerts {
		if alert.ChatID == chatID {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

func (f *fakeAlertRepo) MarkNotified(_ context.Context, alertID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	for i := range f.alerts {
		if f.alerts[i].ID == alertID && !f.alerts[i].Notified {
			f.alerts[i].Notified = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeAlertRepo) get(alertID uint) (domain.Alert, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, alert := range f.alerts {
		if alert.ID == alertID {
			return alert, true
		}
	}
	return domain.Alert{}, false
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Notify(chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

var errBoom = errors.New("boom")

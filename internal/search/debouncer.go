package search

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wonny/screener/backend/internal/contracts"
	"github.com/wonny/screener/backend/pkg/logger"
)

// DefaultDelay is the pause after the last keystroke before a lookup runs
const DefaultDelay = 300 * time.Millisecond

// MinQueryLength is the shortest trimmed input that is sent upstream
const MinQueryLength = 2

// Searchable reports whether q is long enough to search for
func Searchable(q string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(q)) >= MinQueryLength
}

// Result is one delivered lookup
type Result struct {
	Query  string                   `json:"query"`
	Stocks []contracts.StockSummary `json:"stocks"`
	Err    error                    `json:"-"`
}

// Debouncer runs a search only after input has been quiet for the delay, and only
// delivers the result of the latest query. Starting a lookup cancels the previous one.
type Debouncer struct {
	source  contracts.SearchSource
	delay   time.Duration
	deliver func(Result)
	logger  *logger.Logger

	// deliverMu serializes the currency check with the deliver call
	deliverMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	cancel  context.CancelFunc
	stopped bool
}

// NewDebouncer creates a debouncer. deliver runs on a timer goroutine, or synchronously
// from Submit for a query too short to search. It must not block on the goroutine
// calling Submit.
func NewDebouncer(source contracts.SearchSource, delay time.Duration, deliver func(Result), log *logger.Logger) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		source:  source,
		delay:   delay,
		deliver: deliver,
		logger:  log.WithComponent("search"),
	}
}

// Submit records the latest input and restarts the quiet period
func (d *Debouncer) Submit(query string) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}

	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}

	if !Searchable(query) {
		d.cancelInFlight()
		d.mu.Unlock()
		d.emit(seq, Result{Query: query, Stocks: []contracts.StockSummary{}})
		return
	}

	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq, query) })
	d.mu.Unlock()
}

// Stop discards pending and in-flight lookups. Nothing is delivered afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.cancelInFlight()
}

func (d *Debouncer) fire(seq uint64, query string) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.cancelInFlight()
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()

	defer cancel()
	stocks, err := d.source.SearchStocks(ctx, query)

	if err != nil && ctx.Err() == nil {
		d.logger.WithError(err).WithField("query", query).Warn("Stock search failed")
	}
	if !d.emit(seq, Result{Query: query, Stocks: stocks, Err: err}) {
		d.logger.WithField("query", query).Debug("Dropped superseded search result")
	}
}

// emit delivers r if seq is still the latest submission. A newer Submit bumps seq
// before it reaches emit, so results always arrive in submission order.
func (d *Debouncer) emit(seq uint64, r Result) bool {
	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()

	d.mu.Lock()
	current := !d.stopped && seq == d.seq
	d.mu.Unlock()

	if !current {
		return false
	}
	d.deliver(r)
	return true
}

// cancelInFlight must be called with mu held
func (d *Debouncer) cancelInFlight() {
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

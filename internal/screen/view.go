package screen

import (
	"context"
	"sync"

	"github.com/wonny/screener/backend/internal/contracts"
)

// State is the load state of a View
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// RecordLoader produces a complete enriched record set
type RecordLoader interface {
	Load(ctx context.Context) ([]contracts.EnrichedStock, error)
}

// Result is what a renderer draws
type Result struct {
	State   State                     `json:"state"`
	Error   string                    `json:"error,omitempty"`
	Columns []Column                  `json:"columns"`
	Rows    []contracts.EnrichedStock `json:"rows"`
	Total   int                       `json:"total"`
	Sort    SortState                 `json:"sort"`
	Filters map[string]float64        `json:"filters"`
	Query   string                    `json:"query,omitempty"`
}

// View owns the record set and the filter, sort and search state of one screener view.
// Loads are tagged with a generation token; a result for an older token, or one arriving
// after Close, is dropped.
type View struct {
	mu sync.Mutex

	engine    *Engine
	projector *Projector

	records []contracts.EnrichedStock
	filters FilterState
	sort    SortState
	query   string

	state  State
	err    error
	gen    uint64
	closed bool
}

// NewView creates an idle view with no filters and the default sort
func NewView(engine *Engine, projector *Projector) *View {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if projector == nil {
		projector = NewProjector(nil)
	}
	return &View{
		engine:    engine,
		projector: projector,
		filters:   make(FilterState),
		sort:      DefaultSort(),
		state:     StateIdle,
	}
}

// Begin starts a load and returns its token
func (v *View) Begin() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.gen++
	v.state = StateLoading
	v.err = nil
	return v.gen
}

// Complete publishes a complete record set. It reports false if the result was dropped.
func (v *View) Complete(token uint64, records []contracts.EnrichedStock) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || token != v.gen {
		return false
	}
	v.records = records
	v.state = StateReady
	v.err = nil
	return true
}

// Fail moves the view to the error state. It reports false if the result was dropped.
func (v *View) Fail(token uint64, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed || token != v.gen {
		return false
	}
	v.records = nil
	v.state = StateError
	v.err = err
	return true
}

// Load runs one load through the generation guard
func (v *View) Load(ctx context.Context, loader RecordLoader) error {
	token := v.Begin()

	records, err := loader.Load(ctx)
	if err != nil {
		v.Fail(token, err)
		return err
	}
	v.Complete(token, records)
	return nil
}

// Close discards any in-flight load
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}

func (v *View) SetFilters(fs FilterState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = fs.Clone()
}

// ClearFilters resets every bound
func (v *View) ClearFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = make(FilterState)
}

func (v *View) Filters() FilterState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters.Clone()
}

func (v *View) SetSort(s SortState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = s
}

// ToggleSort applies a header click on key
func (v *View) ToggleSort(key string) SortState {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = v.sort.Toggle(key)
	return v.sort
}

func (v *View) SetQuery(q string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.query = q
}

// Result runs search, filter, sort and projection over the current record set.
// Rows are empty unless the view is ready.
func (v *View) Result() Result {
	v.mu.Lock()
	defer v.mu.Unlock()

	res := Result{
		State:   v.state,
		Columns: v.projector.Project(v.filters),
		Sort:    v.sort,
		Filters: v.filters.Values(),
		Query:   v.query,
		Rows:    []contracts.EnrichedStock{},
	}
	if v.err != nil {
		res.Error = v.err.Error()
	}
	if v.state != StateReady {
		return res
	}

	rows := MatchQuery(v.records, v.query)
	rows = v.engine.Apply(rows, v.filters)
	res.Rows = Sort(rows, v.sort)
	res.Total = len(v.records)
	return res
}

// Package reconcile implements the identifier reconciliation engine that sits
// behind a multi-row entry grid. Every identifier commit is scanned for grid
// duplicates synchronously, then checked for persisted ownership and enriched
// with master data asynchronously. Async results are applied only while the
// row still exists and still carries the identifier they were issued for.
package reconcile

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/wsn"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/logger"
	"warehouse_ops_backend/platform/sanitize"

	"github.com/google/uuid"
)

const maxAppendRows = 500

// Options configures one grid.
type Options struct {
	Profile       profile.Profile
	WarehouseID   int64
	Operator      string
	InitialRows   int
	Debounce      time.Duration
	LookupTimeout time.Duration
	FailOpen      bool
	PrintEnabled  bool
}

// Deps are the collaborators an Engine talks to. Printer, Grades and
// Notifier are optional.
type Deps struct {
	Owners     OwnerLookup
	MasterData MasterDataFetcher
	Submitter  BatchSubmitter
	Printer    LabelPrinter
	Grades     GradeChecker
	Notifier   Notifier
	Logger     *logger.Logger
}

// Result is the synchronous part of an identifier commit.
type Result string

const (
	ResultEmpty    Result = "empty"
	ResultRejected Result = "rejected"
	ResultPending  Result = "pending"
)

// Outcome is returned from CommitIdentifier.
type Outcome struct {
	Result Result   `json:"result"`
	Reason Reason   `json:"reason,omitempty"`
	Row    RowView  `json:"row"`
	Sets   SetsView `json:"sets"`
}

// Engine owns the rows of one grid and the derived sets computed from them.
type Engine struct {
	opts     Options
	resolver *OwnershipResolver
	master   MasterDataFetcher
	submit   BatchSubmitter
	printer  LabelPrinter
	grades   GradeChecker
	notifier Notifier
	log      *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	rows       []*Row
	sets       wsn.Sets
	queue      []Event
	submitting bool
	closed     bool

	// flushMu keeps event delivery in commit order across goroutines.
	flushMu sync.Mutex
}

// NewEngine creates an engine with opts.InitialRows empty rows.
func NewEngine(opts Options, deps Deps) *Engine {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if opts.InitialRows < 1 {
		opts.InitialRows = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:     opts,
		resolver: NewOwnershipResolver(deps.Owners, opts.Profile.Kind, opts.LookupTimeout, opts.FailOpen, log),
		master:   deps.MasterData,
		submit:   deps.Submitter,
		printer:  deps.Printer,
		grades:   deps.Grades,
		notifier: notifier,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	e.rows = freshRows(opts.InitialRows)
	e.sets = wsn.Recompute(e.rows)
	return e
}

func freshRows(n int) []*Row {
	rows := make([]*Row, n)
	for i := range rows {
		rows[i] = newRow()
	}
	return rows
}

// Profile returns the grid's profile.
func (e *Engine) Profile() profile.Profile { return e.opts.Profile }

// WarehouseID returns the active warehouse the grid was opened for.
func (e *Engine) WarehouseID() int64 { return e.opts.WarehouseID }

// Snapshot returns the current rows and derived sets.
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// CommitIdentifier handles an identifier-cell commit on rowID.
func (e *Engine) CommitIdentifier(rowID uuid.UUID, raw string) (Outcome, error) {
	e.mu.Lock()
	row, err := e.editableRowLocked(rowID)
	if err != nil {
		e.mu.Unlock()
		return Outcome{}, err
	}

	e.stopDebounceLocked(row)
	row.gen++
	row.conflictKey = ""
	row.ReadOnly = nil

	key := wsn.Normalize(raw)
	var outcome Outcome
	switch {
	case key == "":
		row.Identifier = ""
		row.Status = RowEmpty
		e.recomputeLocked()
		e.enqueueRowLocked(row)
		outcome = Outcome{Result: ResultEmpty}

	default:
		row.Identifier = raw
		e.sets = wsn.Recompute(e.rows)
		if e.sets.GridDuplicates.Has(key) {
			e.rejectLocked(row, key, ReasonGridDuplicate, 0)
			outcome = Outcome{Result: ResultRejected, Reason: ReasonGridDuplicate}
			break
		}
		row.Status = RowChecking
		e.recomputeLocked()
		e.enqueueRowLocked(row)

		e.wg.Add(1)
		go e.checkOwnership(row.ID, key, row.gen)
		outcome = Outcome{Result: ResultPending}
	}

	outcome.Row = row.view(e.opts.Profile, e.sets)
	outcome.Sets = viewSets(e.sets)
	e.unlockAndFlush()
	return outcome, nil
}

// EditField sets a non-identifier cell, subject to the editability policy.
// Editing the last row appends a blank one.
func (e *Engine) EditField(rowID uuid.UUID, field, value string) (RowView, error) {
	return e.EditFields(rowID, map[string]string{field: value})
}

// EditFields sets several non-identifier cells of one row. Every field is
// checked before any is written, so a refused edit leaves the row untouched.
func (e *Engine) EditFields(rowID uuid.UUID, fields map[string]string) (RowView, error) {
	p := e.opts.Profile
	if len(fields) == 0 {
		return RowView{}, apperr.Validation("no fields to edit")
	}

	names := slices.Sorted(maps.Keys(fields))
	values := make(map[string]string, len(fields))
	for _, field := range names {
		value, err := e.checkEdit(field, fields[field])
		if err != nil {
			return RowView{}, err
		}
		values[field] = value
	}

	e.mu.Lock()
	row, err := e.editableRowLocked(rowID)
	if err != nil {
		e.mu.Unlock()
		return RowView{}, err
	}
	decoration := Decorate(row.Key(), row.conflictKey, e.sets)
	for _, field := range names {
		if !CanEdit(p, decoration, field) {
			e.mu.Unlock()
			return RowView{}, apperr.Validation("row is locked until its identifier is corrected")
		}
	}

	for _, field := range names {
		if v := values[field]; v == "" {
			delete(row.Fields, field)
		} else {
			row.Fields[field] = v
		}
	}
	e.enqueueRowLocked(row)
	if e.isLastLocked(row) {
		e.appendLocked(1)
	}
	view := row.view(p, e.sets)
	e.unlockAndFlush()
	return view, nil
}

// checkEdit applies the field policy and returns the sanitized value.
func (e *Engine) checkEdit(field, value string) (string, error) {
	p := e.opts.Profile
	switch {
	case field == p.IdentifierField:
		return "", apperr.BadRequest("identifier cells are committed through the identifier endpoint")
	case p.IsReadOnly(field):
		return "", apperr.Validation("field is filled from master data and cannot be edited")
	case !p.IsEditable(field):
		return "", apperr.BadRequest("unknown field")
	}

	value = sanitize.Text(value)
	if field == p.GradeField && value != "" && e.grades != nil && !e.grades.ValidGrade(value) {
		return "", apperr.Validation("unknown grade").WithDetails(map[string]string{"grade": value})
	}
	return value, nil
}

// AppendRows adds n blank rows at the bottom of the grid.
func (e *Engine) AppendRows(n int) ([]RowView, error) {
	if n < 1 || n > maxAppendRows {
		return nil, apperr.Validation("row count out of range")
	}
	e.mu.Lock()
	if err := e.writableLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	added := e.appendLocked(n)
	e.unlockAndFlush()
	return added, nil
}

// DeleteRow drops a row. Results still in flight for it are discarded.
func (e *Engine) DeleteRow(rowID uuid.UUID) error {
	e.mu.Lock()
	if _, err := e.editableRowLocked(rowID); err != nil {
		e.mu.Unlock()
		return err
	}
	idx := e.indexLocked(rowID)
	e.stopDebounceLocked(e.rows[idx])
	e.rows = slices.Delete(e.rows, idx, idx+1)
	e.queue = append(e.queue, Event{Type: EventRowRemoved, RowID: rowID})
	if len(e.rows) == 0 {
		e.appendLocked(1)
	}
	e.recomputeLocked()
	e.unlockAndFlush()
	return nil
}

// Submit runs the submit gate. Rows the batch persisted leave the grid and
// rows it refused stay in place with a notification carrying the row error.
// When every row persists the grid is reset to fresh empty rows; when the
// call itself fails every row is kept as it was.
func (e *Engine) Submit(ctx context.Context, common map[string]string) (BatchResult, error) {
	p := e.opts.Profile

	e.mu.Lock()
	if err := e.writableLocked(); err != nil {
		e.mu.Unlock()
		return BatchResult{}, err
	}
	e.sets = wsn.Recompute(e.rows)
	if !wsn.CanSubmit(e.sets.Blockers) {
		blockers := e.sets.Blockers.Keys()
		e.mu.Unlock()
		return BatchResult{}, apperr.Conflict("submit blocked by duplicate or cross-warehouse identifiers").
			WithDetails(map[string][]string{"blockers": blockers})
	}

	var rows []SubmitRow
	for _, row := range e.rows {
		key := row.Key()
		if key == "" {
			continue
		}
		if row.Status == RowChecking {
			e.mu.Unlock()
			return BatchResult{}, apperr.Conflict("identifiers are still being verified").
				WithDetails(map[string]string{"wsn": key})
		}
		rows = append(rows, SubmitRow{RowID: row.ID, WSN: key, Fields: maps.Clone(row.Fields), ReadOnly: maps.Clone(row.ReadOnly)})
	}
	if len(rows) == 0 {
		e.mu.Unlock()
		return BatchResult{}, apperr.Validation("no rows with an identifier to submit")
	}

	commonFields := make(map[string]string, len(p.CommonFields))
	for _, field := range p.CommonFields {
		if v := sanitize.Text(common[field]); v != "" {
			commonFields[field] = v
		}
	}
	if _, ok := commonFields["operator_name"]; !ok && p.IsCommon("operator_name") && e.opts.Operator != "" {
		commonFields["operator_name"] = e.opts.Operator
	}
	if missing := p.MissingCommon(commonFields); len(missing) > 0 {
		e.mu.Unlock()
		return BatchResult{}, apperr.Validation("required common fields are missing").
			WithDetails(map[string][]string{"missing": missing})
	}

	e.submitting = true
	e.mu.Unlock()

	result, err := e.submit.SubmitBatch(ctx, BatchRequest{
		Kind:         p.Kind,
		WarehouseID:  e.opts.WarehouseID,
		Operator:     e.opts.Operator,
		Rows:         rows,
		CommonFields: commonFields,
	})

	e.mu.Lock()
	e.submitting = false
	if err != nil {
		e.mu.Unlock()
		return BatchResult{}, err
	}
	persisted := persistedRows(rows, result)
	if len(persisted) == len(rows) {
		e.resetLocked()
	} else {
		e.settleLocked(rows, result, persisted)
	}
	e.unlockAndFlush()
	return result, nil
}

// persistedRows returns the IDs of submitted rows the batch stored. Results
// are matched by identifier; a result without per-row detail counts only
// when it reports every row stored.
func persistedRows(rows []SubmitRow, result BatchResult) map[uuid.UUID]bool {
	persisted := make(map[uuid.UUID]bool, len(rows))
	if len(result.Results) == 0 {
		if result.SuccessCount >= len(rows) {
			for _, row := range rows {
				persisted[row.RowID] = true
			}
		}
		return persisted
	}
	ok := make(map[string]bool, len(result.Results))
	for _, r := range result.Results {
		if r.OK {
			ok[r.WSN] = true
		}
	}
	for _, row := range rows {
		if ok[row.WSN] {
			persisted[row.RowID] = true
		}
	}
	return persisted
}

// settleLocked drops persisted rows and flags the ones the batch refused.
func (e *Engine) settleLocked(rows []SubmitRow, result BatchResult, persisted map[uuid.UUID]bool) {
	errs := make(map[string]string, len(result.Results))
	for _, r := range result.Results {
		if !r.OK {
			errs[r.WSN] = r.Error
		}
	}
	for _, sub := range rows {
		idx := e.indexLocked(sub.RowID)
		if idx < 0 {
			continue
		}
		if persisted[sub.RowID] {
			e.stopDebounceLocked(e.rows[idx])
			e.rows = slices.Delete(e.rows, idx, idx+1)
			e.queue = append(e.queue, Event{Type: EventRowRemoved, RowID: sub.RowID})
			continue
		}
		msg := errs[sub.WSN]
		if msg == "" {
			msg = "row was not stored"
		}
		e.queue = append(e.queue, Event{
			Type:     EventNotification,
			RowID:    sub.RowID,
			WSN:      sub.WSN,
			Severity: ReasonInsertFailed.Severity(),
			Reason:   ReasonInsertFailed,
			Message:  msg,
		})
	}
	if len(e.rows) == 0 {
		e.appendLocked(1)
	}
	e.recomputeLocked()
}

// Close stops pending timers and drops every in-flight result.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	for _, row := range e.rows {
		e.stopDebounceLocked(row)
	}
	e.cancel()
}

// Wait blocks until every lookup, debounce timer and print started so far
// has finished.
func (e *Engine) Wait() {
	e.wg.Wait()
}

func (e *Engine) checkOwnership(rowID uuid.UUID, key string, gen uint64) {
	defer e.wg.Done()

	ownership, err := e.resolver.Resolve(e.ctx, e.opts.WarehouseID, key)

	e.mu.Lock()
	row := e.currentLocked(rowID, key, gen)
	if row == nil {
		e.mu.Unlock()
		return
	}
	switch {
	case err != nil:
		e.rejectLocked(row, key, ReasonLookupFailed, 0)
	case ownership.Status == StatusCrossWarehouse:
		e.rejectLocked(row, key, ReasonCrossWarehouse, ownership.OwnerWarehouseID)
	case ownership.Status == StatusSameWarehouse:
		e.rejectLocked(row, key, ReasonSameWarehouse, ownership.OwnerWarehouseID)
	default:
		e.acceptLocked(row, key)
	}
	e.unlockAndFlush()
}

func (e *Engine) acceptLocked(row *Row, key string) {
	row.Status = RowAccepted
	e.enqueueRowLocked(row)
	if e.isLastLocked(row) {
		e.appendLocked(1)
	}

	rowID, gen := row.ID, row.gen
	e.wg.Add(1)
	row.debounce = time.AfterFunc(e.opts.Debounce, func() {
		e.fetchMasterData(rowID, key, gen)
	})
}

func (e *Engine) fetchMasterData(rowID uuid.UUID, key string, gen uint64) {
	defer e.wg.Done()

	ctx := e.ctx
	if e.opts.LookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.LookupTimeout)
		defer cancel()
	}
	record, err := e.master.FetchMasterData(ctx, key)

	e.mu.Lock()
	row := e.currentLocked(rowID, key, gen)
	if row == nil {
		e.mu.Unlock()
		return
	}
	row.debounce = nil
	if err != nil {
		e.mu.Unlock()
		if apperr.Is(err, apperr.KindNotFound) {
			e.log.Debug("no master data for identifier", "wsn", key)
		} else {
			e.log.LookupFailed("master_data", key, err)
		}
		return
	}

	readOnly := make(map[string]string, len(e.opts.Profile.ReadOnlyFields))
	for _, field := range e.opts.Profile.ReadOnlyFields {
		readOnly[field] = record[field]
	}
	row.ReadOnly = readOnly
	e.enqueueRowLocked(row)

	shouldPrint := e.opts.PrintEnabled && e.printer != nil &&
		!e.sets.GridDuplicates.Has(key) && !e.sets.CrossWarehouse.Has(key)
	payload := LabelPayload{
		Kind:        e.opts.Profile.Kind,
		WSN:         key,
		WarehouseID: e.opts.WarehouseID,
		Operator:    e.opts.Operator,
		Title:       record["product_title"],
	}
	e.unlockAndFlush()

	if shouldPrint {
		if err := e.printer.PrintLabel(ctx, payload); err != nil {
			e.log.PrintFailed(key, err)
		}
	}
}

// rejectLocked clears the row, recomputes the sets and queues the
// notification followed by the refocus request.
func (e *Engine) rejectLocked(row *Row, key string, reason Reason, ownerID int64) {
	e.stopDebounceLocked(row)
	row.Identifier = ""
	row.ReadOnly = nil
	row.Status = RowEmpty
	if reason == ReasonCrossWarehouse {
		row.conflictKey = key
	}
	e.recomputeLocked()
	e.enqueueRowLocked(row)

	e.queue = append(e.queue,
		Event{
			Type:     EventNotification,
			RowID:    row.ID,
			WSN:      key,
			Severity: reason.Severity(),
			Reason:   reason,
			Message:  profile.Format(e.message(reason), key, ownerID),
			OwnerID:  ownerID,
		},
		Event{Type: EventRefocus, RowID: row.ID, Field: e.opts.Profile.IdentifierField},
	)
}

func (e *Engine) message(reason Reason) string {
	m := e.opts.Profile.Messages
	switch reason {
	case ReasonGridDuplicate:
		return m.GridDuplicate
	case ReasonSameWarehouse:
		return m.SameWarehouse
	case ReasonCrossWarehouse:
		return m.CrossWarehouse
	default:
		return m.LookupFailed
	}
}

func (e *Engine) resetLocked() {
	for _, row := range e.rows {
		e.stopDebounceLocked(row)
	}
	e.rows = freshRows(e.opts.InitialRows)
	e.sets = wsn.Recompute(e.rows)
	view := e.viewLocked()
	e.queue = append(e.queue,
		Event{Type: EventGridReset, Rows: view.Rows},
		Event{Type: EventSetsChanged, Sets: &view.Sets},
	)
}

func (e *Engine) appendLocked(n int) []RowView {
	added := make([]RowView, 0, n)
	for range n {
		row := newRow()
		e.rows = append(e.rows, row)
		added = append(added, row.view(e.opts.Profile, e.sets))
	}
	e.queue = append(e.queue, Event{Type: EventRowsAppended, Rows: added})
	return added
}

func (e *Engine) recomputeLocked() {
	e.sets = wsn.Recompute(e.rows)
	sets := viewSets(e.sets)
	e.queue = append(e.queue, Event{Type: EventSetsChanged, Sets: &sets})
}

func (e *Engine) enqueueRowLocked(row *Row) {
	view := row.view(e.opts.Profile, e.sets)
	e.queue = append(e.queue, Event{Type: EventRowUpdated, RowID: row.ID, Row: &view})
}

// currentLocked returns the row only if an async result for (key, gen) is
// still relevant to it.
func (e *Engine) currentLocked(rowID uuid.UUID, key string, gen uint64) *Row {
	if e.closed {
		return nil
	}
	idx := e.indexLocked(rowID)
	if idx < 0 {
		return nil
	}
	row := e.rows[idx]
	if row.gen != gen || row.Key() != key {
		return nil
	}
	return row
}

func (e *Engine) writableLocked() error {
	if e.closed {
		return apperr.Gone("grid session has ended")
	}
	if e.submitting {
		return apperr.Conflict("grid is being submitted")
	}
	return nil
}

func (e *Engine) editableRowLocked(rowID uuid.UUID) (*Row, error) {
	if err := e.writableLocked(); err != nil {
		return nil, err
	}
	idx := e.indexLocked(rowID)
	if idx < 0 {
		return nil, apperr.NotFound("row not found")
	}
	return e.rows[idx], nil
}

func (e *Engine) indexLocked(rowID uuid.UUID) int {
	return slices.IndexFunc(e.rows, func(r *Row) bool { return r.ID == rowID })
}

func (e *Engine) isLastLocked(row *Row) bool {
	return len(e.rows) > 0 && e.rows[len(e.rows)-1] == row
}

func (e *Engine) stopDebounceLocked(row *Row) {
	if row.debounce != nil && row.debounce.Stop() {
		e.wg.Done()
	}
	row.debounce = nil
}

func (e *Engine) viewLocked() View {
	rows := make([]RowView, len(e.rows))
	for i, row := range e.rows {
		rows[i] = row.view(e.opts.Profile, e.sets)
	}
	sets := viewSets(e.sets)
	return View{
		Kind:        e.opts.Profile.Kind,
		WarehouseID: e.opts.WarehouseID,
		Rows:        rows,
		Sets:        sets,
		CanSubmit:   sets.CanSubmit,
	}
}

// unlockAndFlush releases mu and delivers queued events in order.
func (e *Engine) unlockAndFlush() {
	pending := e.queue
	e.queue = nil
	e.flushMu.Lock()
	e.mu.Unlock()
	defer e.flushMu.Unlock()
	for _, event := range pending {
		e.notifier.Notify(event)
	}
}

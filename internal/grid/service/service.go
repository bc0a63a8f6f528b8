// Package service hosts grid sessions: one reconciliation engine per open
// entry grid, scoped to the warehouse that opened it and expired when idle.
package service

import (
	"context"
	"sync"
	"time"

	"warehouse_ops_backend/internal/events"
	"warehouse_ops_backend/internal/grid/transport"
	"warehouse_ops_backend/internal/notification/sse"
	"warehouse_ops_backend/internal/profile"
	"warehouse_ops_backend/internal/reconcile"
	"warehouse_ops_backend/platform/apperr"
	"warehouse_ops_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	gridNotFoundMsg = "grid session not found"
	gridExpiredMsg  = "grid session expired"

	defaultSweepInterval = time.Minute
)

// Config tunes every engine the service creates.
type Config struct {
	InitialRows   int
	Debounce      time.Duration
	LookupTimeout time.Duration
	FailOpen      bool
	PrintEnabled  bool
	SessionTTL    time.Duration
}

// Deps are the collaborators shared by every grid. Printer, Grades, Streams
// and EventBus are optional.
type Deps struct {
	Owners     reconcile.OwnerLookup
	MasterData reconcile.MasterDataFetcher
	Submitter  reconcile.BatchSubmitter
	Printer    reconcile.LabelPrinter
	Grades     reconcile.GradeChecker
	Streams    *sse.Service
	EventBus   events.Bus
	Logger     *logger.Logger
}

type session struct {
	id          uuid.UUID
	engine      *reconcile.Engine
	warehouseID int64
	lastActive  time.Time
}

// Service owns the open grid sessions.
type Service struct {
	cfg  Config
	deps Deps
	log  *logger.Logger
	now  func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	expired  map[uuid.UUID]tombstone
}

// tombstone remembers a swept grid so its next request answers 410 Gone.
type tombstone struct {
	warehouseID int64
	at          time.Time
}

// New creates a grid session service.
func New(cfg Config, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		cfg:      cfg,
		deps:     deps,
		log:      log,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*session),
		expired:  make(map[uuid.UUID]tombstone),
	}
}

// Open starts a new grid for kind in the given warehouse.
func (s *Service) Open(kind profile.Kind, warehouseID int64, operator string) (transport.GridResponse, error) {
	p, err := profile.Get(string(kind))
	if err != nil {
		return transport.GridResponse{}, err
	}

	id := uuid.New()
	engine := reconcile.NewEngine(reconcile.Options{
		Profile:       p,
		WarehouseID:   warehouseID,
		Operator:      operator,
		InitialRows:   s.cfg.InitialRows,
		Debounce:      s.cfg.Debounce,
		LookupTimeout: s.cfg.LookupTimeout,
		FailOpen:      s.cfg.FailOpen,
		PrintEnabled:  s.cfg.PrintEnabled,
	}, reconcile.Deps{
		Owners:     s.deps.Owners,
		MasterData: s.deps.MasterData,
		Submitter:  s.deps.Submitter,
		Printer:    s.deps.Printer,
		Grades:     s.deps.Grades,
		Logger:     s.log,
		Notifier: &gridNotifier{
			gridID:      id,
			kind:        string(p.Kind),
			warehouseID: warehouseID,
			streams:     s.deps.Streams,
			bus:         s.deps.EventBus,
		},
	})

	s.mu.Lock()
	s.sessions[id] = &session{id: id, engine: engine, warehouseID: warehouseID, lastActive: s.now()}
	s.mu.Unlock()

	s.log.Info("grid opened", "gridId", id, "kind", p.Kind, "warehouseId", warehouseID)
	return transport.GridResponse{ID: id, View: engine.Snapshot()}, nil
}

// Get returns the current state of a grid.
func (s *Service) Get(id uuid.UUID, warehouseID int64) (transport.GridResponse, error) {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return transport.GridResponse{}, err
	}
	return transport.GridResponse{ID: id, View: sess.engine.Snapshot()}, nil
}

// CommitIdentifier handles an identifier-cell commit.
func (s *Service) CommitIdentifier(id uuid.UUID, warehouseID int64, rowID uuid.UUID, value string) (reconcile.Outcome, error) {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	return sess.engine.CommitIdentifier(rowID, value)
}

// EditFields applies domain-field edits to one row. Either every field is
// written or none is.
func (s *Service) EditFields(id uuid.UUID, warehouseID int64, rowID uuid.UUID, fields map[string]string) (transport.RowResponse, error) {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return transport.RowResponse{}, err
	}
	row, err := sess.engine.EditFields(rowID, fields)
	if err != nil {
		return transport.RowResponse{}, err
	}
	return transport.RowResponse{Row: row}, nil
}

// AppendRows adds count blank rows.
func (s *Service) AppendRows(id uuid.UUID, warehouseID int64, count int) (transport.RowsResponse, error) {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return transport.RowsResponse{}, err
	}
	rows, err := sess.engine.AppendRows(count)
	if err != nil {
		return transport.RowsResponse{}, err
	}
	return transport.RowsResponse{Rows: rows}, nil
}

// DeleteRow drops one row.
func (s *Service) DeleteRow(id uuid.UUID, warehouseID int64, rowID uuid.UUID) error {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return err
	}
	return sess.engine.DeleteRow(rowID)
}

// Submit runs the grid's submit gate.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, warehouseID int64, common map[string]string) (reconcile.BatchResult, error) {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return reconcile.BatchResult{}, err
	}
	return sess.engine.Submit(ctx, common)
}

// Stream serves the grid's event stream.
func (s *Service) Stream(c *gin.Context, id uuid.UUID, warehouseID int64) error {
	if s.deps.Streams == nil {
		return apperr.Unavailable("event streaming is disabled", nil)
	}
	if _, err := s.session(id, warehouseID); err != nil {
		return err
	}
	s.deps.Streams.Stream(c, channelFor(id))
	return nil
}

// Close ends a grid explicitly.
func (s *Service) Close(id uuid.UUID, warehouseID int64) error {
	sess, err := s.session(id, warehouseID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	s.end(sess)
	return nil
}

// Sweep ends every grid idle for longer than the session TTL and returns
// how many were ended. A swept grid answers 410 Gone to its next request
// within one more TTL, then 404.
func (s *Service) Sweep() int {
	now := s.now()
	var expired []*session

	s.mu.Lock()
	for id, t := range s.expired {
		if now.Sub(t.at) > s.cfg.SessionTTL {
			delete(s.expired, id)
		}
	}
	for id, sess := range s.sessions {
		if s.idle(sess, now) {
			expired = append(expired, sess)
			delete(s.sessions, id)
			s.expired[id] = tombstone{warehouseID: sess.warehouseID, at: now}
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.expire(sess)
	}
	return len(expired)
}

// Run sweeps idle grids until ctx is done.
func (s *Service) Run(ctx context.Context) {
	interval := defaultSweepInterval
	if s.cfg.SessionTTL > 0 && s.cfg.SessionTTL/4 < interval {
		interval = s.cfg.SessionTTL / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.log.Info("expired idle grids", "count", n)
			}
		}
	}
}

// Shutdown ends every open grid.
func (s *Service) Shutdown() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[uuid.UUID]*session)
	s.expired = make(map[uuid.UUID]tombstone)
	s.mu.Unlock()

	for _, sess := range all {
		s.end(sess)
	}
}

// session looks up a grid, enforces warehouse scoping and refreshes its
// activity time. A grid found idle past its TTL is expired on the spot.
func (s *Service) session(id uuid.UUID, warehouseID int64) (*session, error) {
	now := s.now()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		t, swept := s.expired[id]
		if swept && t.warehouseID == warehouseID {
			delete(s.expired, id)
			s.mu.Unlock()
			return nil, apperr.Gone(gridExpiredMsg)
		}
		s.mu.Unlock()
		return nil, apperr.NotFound(gridNotFoundMsg)
	}
	if sess.warehouseID != warehouseID {
		s.mu.Unlock()
		return nil, apperr.NotFound(gridNotFoundMsg)
	}
	if s.idle(sess, now) {
		delete(s.sessions, id)
		s.mu.Unlock()
		s.expire(sess)
		return nil, apperr.Gone(gridExpiredMsg)
	}
	sess.lastActive = now
	s.mu.Unlock()
	return sess, nil
}

func (s *Service) idle(sess *session, now time.Time) bool {
	return s.cfg.SessionTTL > 0 && now.Sub(sess.lastActive) > s.cfg.SessionTTL
}

func (s *Service) expire(sess *session) {
	s.end(sess)
	if s.deps.EventBus != nil {
		s.deps.EventBus.Publish(context.Background(), events.GridExpired{
			BaseEvent:   events.NewBaseEvent(),
			GridID:      sess.id,
			Kind:        string(sess.engine.Profile().Kind),
			WarehouseID: sess.warehouseID,
		})
	}
	s.log.Info("grid expired", "gridId", sess.id, "warehouseId", sess.warehouseID)
}

func (s *Service) end(sess *session) {
	sess.engine.Close()
	if s.deps.Streams != nil {
		s.deps.Streams.CloseChannel(channelFor(sess.id))
	}
}

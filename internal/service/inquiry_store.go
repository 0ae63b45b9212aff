package service

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/umalmyha/inquiries/internal/analytics"
	inqErrors "github.com/umalmyha/inquiries/internal/errors"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/repository"
)

const (
	// DefaultCoalesceWindow is how long fetched inquiries are considered fresh
	DefaultCoalesceWindow = 30 * time.Second
	// DefaultFetchTimeout is how long inquiries fetch may take
	DefaultFetchTimeout = 10 * time.Second
)

const (
	defaultFetchErrorMessage = "Failed to fetch inquiries"
	malformedResponseMessage = "Malformed inquiries response"
	malformedRowMessage      = "Malformed inquiry update response"
	fetchFlightKey           = "inquiries"
	// remote call may outlive FetchTimeout by that much
	fetchGracePeriod         = 5 * time.Second
)

// InquiryStoreCfg tunes inquiry store
type InquiryStoreCfg struct {
	CoalesceWindow time.Duration
	FetchTimeout   time.Duration
}

// InquiryStore keeps inquiries of the session. Operations never fail, outcome is reflected in state.
type InquiryStore interface {
	Fetch(ctx context.Context, force bool)
	Select(*model.Inquiry)
	UpdateStatus(ctx context.Context, id string, status model.Status)
	State() model.InquiriesState
	Subscribe() (<-chan model.InquiriesState, func())
}

type inquiryStore struct {
	source   repository.InquirySource
	tracker  analytics.Tracker
	logger   logrus.FieldLogger
	validate *validator.Validate
	cfg      InquiryStoreCfg
	now      func() time.Time
	flight   singleflight.Group
	locks    *keyedMutex
	mu       sync.Mutex
	state    model.InquiriesState
	subs     map[int]chan model.InquiriesState
	nextSub  int
}

// NewInquiryStore builds InquiryStore
func NewInquiryStore(source repository.InquirySource, tracker analytics.Tracker, cfg InquiryStoreCfg, logger logrus.FieldLogger) InquiryStore {
	return newInquiryStore(source, tracker, cfg, logger)
}

func newInquiryStore(source repository.InquirySource, tracker analytics.Tracker, cfg InquiryStoreCfg, logger logrus.FieldLogger) *inquiryStore {
	if cfg.CoalesceWindow <= 0 {
		cfg.CoalesceWindow = DefaultCoalesceWindow
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if tracker == nil {
		tracker = analytics.NopTracker()
	}

	return &inquiryStore{
		source:   source,
		tracker:  tracker,
		logger:   logger,
		validate: validator.New(),
		cfg:      cfg,
		now:      time.Now,
		locks:    newKeyedMutex(),
		state:    model.InquiriesState{Inquiries: make([]*model.Inquiry, 0)},
		subs:     make(map[int]chan model.InquiriesState),
	}
}

// Fetch reloads inquiries unless they were fetched within coalesce window.
// Concurrent fetches share single remote call.
func (s *inquiryStore) Fetch(ctx context.Context, force bool) {
	s.mu.Lock()
	if !force && s.recentlyFetched() {
		s.mu.Unlock()
		s.logger.Debug("inquiries fetched recently, skipping fetch")
		return
	}
	s.state.IsLoading = true
	s.state.Error = nil
	s.publish()
	s.mu.Unlock()

	// flight is shared by every waiting caller, so it does not inherit ctx of the one that started it
	res, err, _ := s.flight.Do(fetchFlightKey, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout+fetchGracePeriod)
		return s.fetchWithTimeout(flightCtx, cancel)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		msg := err.Error()
		s.state.Error = &msg
		s.state.IsLoading = false
		s.state.IsOffline = inqErrors.IsOffline(err)
		s.publish()

		s.logger.WithError(err).WithField("offline", s.state.IsOffline).Warn("failed to fetch inquiries")
		return
	}

	inquiries := res.([]*model.Inquiry)
	now := s.now().UTC()
	s.state.Inquiries = model.CopyInquiries(inquiries)
	s.state.IsLoading = false
	s.state.LastFetchedAt = &now
	s.state.IsOffline = false
	s.publish()

	s.track(ctx, "inquiries_fetched", map[string]any{"count": len(inquiries)})
}

// must be called with mu held
func (s *inquiryStore) recentlyFetched() bool {
	last := s.state.LastFetchedAt
	return last != nil && s.now().Sub(*last) < s.cfg.CoalesceWindow && len(s.state.Inquiries) > 0
}

type fetchResult struct {
	resp *model.InquiryListResponse
	err  error
}

// fetchWithTimeout races remote call against timer. Call which lost the race keeps running,
// its result is dropped. cancel is called once remote call returns.
func (s *inquiryStore) fetchWithTimeout(ctx context.Context, cancel context.CancelFunc) ([]*model.Inquiry, error) {
	resCh := make(chan fetchResult, 1)
	go func() {
		defer cancel()
		resp, err := s.source.FetchInquiries(ctx)
		resCh <- fetchResult{resp: resp, err: err}
	}()

	timer := time.NewTimer(s.cfg.FetchTimeout)
	defer timer.Stop()

	var res fetchResult
	select {
	case res = <-resCh:
	case <-timer.C:
		return nil, inqErrors.Timeoutf("Request timed out after %s", s.cfg.FetchTimeout)
	}

	if res.err != nil {
		return nil, res.err
	}
	return s.parseResponse(res.resp)
}

// parseResponse fails closed on envelopes of unexpected shape
func (s *inquiryStore) parseResponse(resp *model.InquiryListResponse) ([]*model.Inquiry, error) {
	if resp == nil {
		return nil, inqErrors.NewServerErr("malformed_response", malformedResponseMessage, nil)
	}

	if resp.Success == nil || !*resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = defaultFetchErrorMessage
		}
		return nil, inqErrors.FromMessage(msg)
	}

	if err := s.validate.Struct(resp); err != nil {
		return nil, inqErrors.NewServerErr("malformed_response", malformedResponseMessage, err)
	}

	if resp.Data == nil {
		return make([]*model.Inquiry, 0), nil
	}
	return resp.Data, nil
}

// Select remembers copy of inquiry as selected one, nil clears selection
func (s *inquiryStore) Select(i *model.Inquiry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedInquiry = i.Copy()
	s.publish()
}

// UpdateStatus applies status optimistically and reconciles with backend row,
// on failure previous version of the inquiry is restored. Updates of the same inquiry run one by one.
func (s *inquiryStore) UpdateStatus(ctx context.Context, id string, status model.Status) {
	unlock := s.locks.Lock(id)
	defer unlock()

	if !status.Valid() {
		s.mu.Lock()
		msg := "unknown inquiry status " + string(status)
		s.state.Error = &msg
		s.publish()
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	prev := findInquiry(s.state.Inquiries, id).Copy()
	var prevSelected *model.Inquiry
	if sel := s.state.SelectedInquiry; sel != nil && sel.ID == id {
		prevSelected = sel.Copy()
	}

	now := s.now().UTC()
	for idx, i := range s.state.Inquiries {
		if i.ID == id {
			s.state.Inquiries[idx] = withStatus(i, status, now)
		}
	}
	if sel := s.state.SelectedInquiry; sel != nil && sel.ID == id {
		s.state.SelectedInquiry = withStatus(sel, status, now)
	}
	s.state.IsLoading = true
	s.publish()
	s.mu.Unlock()

	row, err := s.source.UpdateStatus(ctx, id, status)
	if err == nil {
		if row == nil {
			err = inqErrors.NewServerErr("malformed_response", malformedRowMessage, nil)
		} else if vErr := s.validate.Struct(row); vErr != nil {
			err = inqErrors.NewServerErr("malformed_response", malformedRowMessage, vErr)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		msg := err.Error()
		s.rollback(id, prev, prevSelected)
		s.state.Error = &msg
		s.state.IsLoading = false
		s.publish()

		s.logger.WithError(err).WithField("inquiryId", id).Warn("inquiry status update rejected, rolled back")
		s.track(ctx, "inquiry_status_rolled_back", map[string]any{"inquiryId": id, "status": string(status), "error": msg})
		return
	}

	for idx, i := range s.state.Inquiries {
		if i.ID == row.ID {
			s.state.Inquiries[idx] = row.Copy()
		}
	}
	if sel := s.state.SelectedInquiry; sel != nil && sel.ID == row.ID {
		s.state.SelectedInquiry = row.Copy()
	}
	s.state.IsLoading = false
	s.publish()

	s.track(ctx, "inquiry_status_updated", map[string]any{"inquiryId": id, "status": string(status)})
}

// rollback restores inquiry id only, other inquiries may have been reconciled meanwhile.
// must be called with mu held
func (s *inquiryStore) rollback(id string, prev, prevSelected *model.Inquiry) {
	if prev != nil {
		for idx, i := range s.state.Inquiries {
			if i.ID == id {
				s.state.Inquiries[idx] = prev.Copy()
			}
		}
	}

	if sel := s.state.SelectedInquiry; sel != nil && sel.ID == id {
		switch {
		case prevSelected != nil:
			s.state.SelectedInquiry = prevSelected
		case prev != nil:
			s.state.SelectedInquiry = prev.Copy()
		}
	}
}

func findInquiry(inquiries []*model.Inquiry, id string) *model.Inquiry {
	for _, i := range inquiries {
		if i.ID == id {
			return i
		}
	}
	return nil
}

func withStatus(i *model.Inquiry, status model.Status, at time.Time) *model.Inquiry {
	c := i.Copy()
	c.Status = status
	c.UpdatedAt = at
	return c
}

// State returns snapshot of current state
func (s *inquiryStore) State() model.InquiriesState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Copy()
}

// Subscribe delivers snapshot on every state change. Slow subscriber gets only the latest snapshot.
func (s *inquiryStore) Subscribe() (<-chan model.InquiriesState, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	ch := make(chan model.InquiriesState, 1)
	ch <- s.state.Copy()
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// must be called with mu held
func (s *inquiryStore) publish() {
	if len(s.subs) == 0 {
		return
	}

	snapshot := s.state.Copy()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
			continue
		default:
		}

		// drop stale snapshot nobody picked up yet
		select {
		case <-ch:
		default:
		}

		select {
		case ch <- snapshot:
		default:
		}
	}
}

func (s *inquiryStore) track(ctx context.Context, event string, props map[string]any) {
	if err := s.tracker.Track(ctx, event, props); err != nil {
		s.logger.WithError(err).WithField("event", event).Warn("failed to track analytics event")
	}
}

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex serializes work per key
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()

		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

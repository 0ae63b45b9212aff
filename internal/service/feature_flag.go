package service

import (
	"context"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/sirupsen/logrus"
	"github.com/umalmyha/inquiries/internal/model"
	"github.com/umalmyha/inquiries/internal/repository"
)

// DefaultFlagsTimeToLive is how long evaluated flags are served from cache
const DefaultFlagsTimeToLive = 5 * time.Minute

const anonymousUser = "anon"

// FetchOptions tunes feature flags fetch
type FetchOptions struct {
	UserID string
	Force  bool
}

// FeatureFlagService evaluates remote feature flags for a single session
type FeatureFlagService interface {
	Fetch(context.Context, FetchOptions) model.FlagState
	Cached() model.FlagState
	Invalidate()
}

type featureFlagService struct {
	flagRps  repository.FlagRepository
	ttl      time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
	fetchMu  sync.Mutex
	mu       sync.RWMutex
	state    model.FlagState
	cachedAt *time.Time
}

// NewFeatureFlagService builds FeatureFlagService, state starts with defaults
func NewFeatureFlagService(flagRps repository.FlagRepository, ttl time.Duration, logger logrus.FieldLogger) FeatureFlagService {
	return newFeatureFlagService(flagRps, ttl, logger)
}

func newFeatureFlagService(flagRps repository.FlagRepository, ttl time.Duration, logger logrus.FieldLogger) *featureFlagService {
	if ttl <= 0 {
		ttl = DefaultFlagsTimeToLive
	}

	return &featureFlagService{
		flagRps: flagRps,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		state:   model.DefaultFlagState(),
	}
}

// Fetch returns cached flags while they are fresh, otherwise evaluates remote records.
// Forced fetch reads flag store skipping shared caches.
// Failures are never returned, defaults tagged with error source are served instead.
func (s *featureFlagService) Fetch(ctx context.Context, opts FetchOptions) model.FlagState {
	s.fetchMu.Lock()
	defer s.fetchMu.Unlock()

	if opts.Force {
		ctx = repository.WithFreshRead(ctx)
	} else if state, ok := s.fresh(); ok {
		state.Source = model.FlagSourceCache
		return state
	}

	now := s.now()

	records, readAt, err := s.findAll(ctx, now)
	if err != nil {
		s.logger.WithError(err).Warn("failed to fetch feature flags, falling back to defaults")

		state := model.DefaultFlagState()
		state.Source = model.FlagSourceError
		state.FetchedAt = &now
		s.store(state, now)
		return state.Copy()
	}

	state := Evaluate(records, opts.UserID)
	state.Source = model.FlagSourceRemote
	state.FetchedAt = &now
	s.store(state, readAt)

	s.logger.WithFields(logrus.Fields{
		"records":    len(records),
		"killSwitch": state.KillSwitch,
	}).Debug("feature flags evaluated")

	return state.Copy()
}

// findAll returns records with time they were read from flag store, so records served by
// shared cache expire no later than ttl after that read
func (s *featureFlagService) findAll(ctx context.Context, now time.Time) ([]*model.FlagRecord, time.Time, error) {
	aged, ok := s.flagRps.(repository.AgedFlagRepository)
	if !ok {
		records, err := s.flagRps.FindAll(ctx)
		return records, now, err
	}

	records, readAt, err := aged.FindAllAged(ctx)
	if err != nil {
		return nil, now, err
	}
	if readAt.IsZero() || readAt.After(now) {
		readAt = now
	}
	return records, readAt, nil
}

// Cached returns whatever is cached right now
func (s *featureFlagService) Cached() model.FlagState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Copy()
}

// Invalidate makes next Fetch go to remote store, current values stay readable
func (s *featureFlagService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cachedAt = nil
}

func (s *featureFlagService) fresh() (model.FlagState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cachedAt == nil || s.now().Sub(*s.cachedAt) >= s.ttl {
		return model.FlagState{}, false
	}
	return s.state.Copy(), true
}

func (s *featureFlagService) store(state model.FlagState, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Copy()
	s.cachedAt = &at
}

// Evaluate folds flag records into state for user. Records the user isn't eligible for are ignored,
// kill switch disables every dependent feature.
func Evaluate(records []*model.FlagRecord, userID string) model.FlagState {
	state := model.DefaultFlagState()

	var message, killSwitchMessage *string
	for _, r := range records {
		if r == nil || !Eligible(r, userID) {
			continue
		}

		switch r.Key {
		case model.FlagKillSwitch:
			state.KillSwitch = r.Enabled
			if nonEmpty(r.SafeModeMessage) {
				killSwitchMessage = r.SafeModeMessage
			}
		case model.FlagTelephony:
			state.Telephony = r.Enabled
		case model.FlagPayments:
			state.Payments = r.Enabled
		case model.FlagNotifications:
			state.Notifications = r.Enabled
		case model.FlagAnalytics:
			state.Analytics = r.Enabled
		default:
			continue
		}

		if message == nil && nonEmpty(r.SafeModeMessage) {
			message = r.SafeModeMessage
		}
	}

	if killSwitchMessage != nil {
		message = killSwitchMessage
	}
	if message != nil {
		m := *message
		state.SafeModeMessage = &m
	}

	if state.KillSwitch {
		state.Telephony = false
		state.Payments = false
		state.Notifications = false
		state.Analytics = false
	}
	return state
}

// Eligible decides whether user falls into record rollout
func Eligible(r *model.FlagRecord, userID string) bool {
	if r.RolloutPercentage == nil || *r.RolloutPercentage >= 100 {
		return true
	}
	if *r.RolloutPercentage <= 0 {
		return false
	}
	return Bucket(r.Key, userID) < *r.RolloutPercentage
}

// Bucket places user into one of 100 buckets of flag key rollout. Same key and user always
// land in the same bucket. Hash runs over UTF-16 code units, so clients hashing UTF-16 strings agree.
func Bucket(key, userID string) int {
	if userID == "" {
		userID = anonymousUser
	}

	var h int32
	for _, u := range utf16.Encode([]rune(key + ":" + userID)) {
		h = (h << 5) - h + int32(u)
	}

	abs := int64(h)
	if abs < 0 {
		abs = -abs
	}
	return int(abs % 100)
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

const (
	sessionIdleTimeout     = 30 * time.Minute
	sessionCleanupInterval = 10 * time.Minute
	// DefaultMaxFlagSessions bounds number of sessions registry keeps at once
	DefaultMaxFlagSessions = 10000
)

type flagSession struct {
	svc      FeatureFlagService
	lastSeen time.Time
}

// FeatureFlagRegistry keeps one FeatureFlagService per session user.
// Idle sessions are forgotten, anonymous session is kept for good.
type FeatureFlagRegistry struct {
	flagRps     repository.FlagRepository
	ttl         time.Duration
	logger      logrus.FieldLogger
	now         func() time.Time
	maxSessions int
	mu          sync.Mutex
	sessions    map[string]*flagSession
}

// NewFeatureFlagRegistry builds FeatureFlagRegistry
func NewFeatureFlagRegistry(flagRps repository.FlagRepository, ttl time.Duration, logger logrus.FieldLogger) *FeatureFlagRegistry {
	return &FeatureFlagRegistry{
		flagRps:     flagRps,
		ttl:         ttl,
		logger:      logger,
		now:         time.Now,
		maxSessions: DefaultMaxFlagSessions,
		sessions:    make(map[string]*flagSession),
	}
}

// ForUser returns flags service of the user session, anonymous sessions share one service
func (r *FeatureFlagRegistry) ForUser(userID string) FeatureFlagService {
	if userID == "" {
		userID = anonymousUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	session, ok := r.sessions[userID]
	if !ok {
		if len(r.sessions) >= r.maxSessions {
			r.forgetLeastRecent()
		}
		session = &flagSession{svc: NewFeatureFlagService(r.flagRps, r.ttl, r.logger.WithField("session", userID))}
		r.sessions[userID] = session
	}
	session.lastSeen = now
	return session.svc
}

// Fetch fetches flags for user session
func (r *FeatureFlagRegistry) Fetch(ctx context.Context, opts FetchOptions) model.FlagState {
	return r.ForUser(opts.UserID).Fetch(ctx, opts)
}

// Invalidate drops cached flags of every session
func (r *FeatureFlagRegistry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, session := range r.sessions {
		session.svc.Invalidate()
	}
	r.logger.WithField("sessions", len(r.sessions)).Info("feature flags cache invalidated")
}

// Cleanup forgets idle sessions until ctx is done
func (r *FeatureFlagRegistry) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.forgetIdle(r.now())
		}
	}
}

func (r *FeatureFlagRegistry) forgetIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	forgotten := 0
	for userID, session := range r.sessions {
		if userID != anonymousUser && now.Sub(session.lastSeen) > sessionIdleTimeout {
			delete(r.sessions, userID)
			forgotten++
		}
	}
	if forgotten > 0 {
		r.logger.WithField("sessions", forgotten).Debug("idle feature flags sessions forgotten")
	}
}

// must be called with mu held
func (r *FeatureFlagRegistry) forgetLeastRecent() {
	var (
		oldestID string
		oldest   time.Time
	)
	for userID, session := range r.sessions {
		if userID == anonymousUser {
			continue
		}
		if oldestID == "" || session.lastSeen.Before(oldest) {
			oldestID, oldest = userID, session.lastSeen
		}
	}
	if oldestID != "" {
		delete(r.sessions, oldestID)
	}
}

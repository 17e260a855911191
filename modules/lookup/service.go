// Package lookup resolves a username to its public repositories through a
// two-level session cache in front of the GitHub client.
package lookup

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/model"
	"github.com/guarzo/repolookup/modules/github"
)

// LookupService is the only surface callers depend on.
type LookupService interface {
	// GetRepositoriesFor runs one lookup attempt for the target picked from q.
	// It never retries. If a newer call starts before this one finishes, the
	// returned result has Superseded set and the published state is left alone.
	GetRepositoriesFor(ctx context.Context, q model.Query) model.Result
	// State returns the latest published result.
	State() model.Result
	// Invalidate drops every cached entry reachable from username.
	Invalidate(username string)
	// InvalidateRepositories drops the repository entry and its timestamp
	// for numericID.
	InvalidateRepositories(numericID string)
}

type lookupService struct {
	client    github.GitHubClient
	cache     common.CacheRepository
	ttl       time.Duration
	now       func() time.Time
	log       *logrus.Entry
	listeners []func(model.Result)

	// group serialises read-decide-write per cache key. Flights run detached
	// from any single caller's cancellation.
	group singleflight.Group

	mu         sync.Mutex
	generation uint64
	state      model.Result

	// notifyMu keeps listener callbacks in publish order.
	notifyMu sync.Mutex
}

// Option configures a LookupService.
type Option func(*lookupService)

// WithCacheDuration sets how long a repository listing stays trusted.
func WithCacheDuration(d time.Duration) Option {
	return func(s *lookupService) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *lookupService) {
		s.now = now
	}
}

// WithLogger replaces the default component logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *lookupService) {
		s.log = log
	}
}

// WithListener registers fn to receive every published state, in order.
// fn must not call GetRepositoriesFor.
func WithListener(fn func(model.Result)) Option {
	return func(s *lookupService) {
		s.listeners = append(s.listeners, fn)
	}
}

// NewLookupService constructs a LookupService.
func NewLookupService(client github.GitHubClient, cache common.CacheRepository, opts ...Option) LookupService {
	s := &lookupService{
		client: client,
		cache:  cache,
		ttl:    DefaultCacheDuration,
		now:    time.Now,
		log:    logrus.WithField("component", "lookup"),
		state:  idle(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func idle() model.Result {
	return model.Result{Status: model.Status{State: model.StateIdle}}
}

func (s *lookupService) GetRepositoriesFor(ctx context.Context, q model.Query) model.Result {
	gen := s.begin()

	t := ResolveTarget(q)
	if t.IsZero() {
		return s.finish(gen, idle())
	}

	target := t.String()
	log := s.log.WithField("target", target)
	s.publish(gen, model.Result{Target: target, Status: model.Status{State: model.StateLoading}})

	identity := model.Identity{NumericID: t.NumericID}
	if t.Username != "" {
		var err error
		identity, err = s.resolveIdentity(ctx, t.Username)
		if err != nil {
			return s.finish(gen, s.failed(log, target, err))
		}
		if s.superseded(gen) {
			log.Debug("request superseded after identity step")
			return model.Result{
				Target:     target,
				Login:      identity.Login,
				NumericID:  identity.NumericID,
				Status:     model.Status{State: model.StateLoading},
				Superseded: true,
			}
		}
	}

	repos, err := s.repositories(ctx, identity.NumericID)
	if err != nil {
		return s.finish(gen, s.failed(log, target, err))
	}

	login := identity.Login
	if login == "" && len(repos) > 0 {
		// display only; never written to the identity cache
		login = repos[0].OwnerLogin
	}

	log.WithFields(logrus.Fields{
		"numeric_id": identity.NumericID,
		"repos":      len(repos),
	}).Debug("lookup succeeded")

	return s.finish(gen, model.Result{
		Target:       target,
		Repositories: repos,
		Login:        login,
		NumericID:    identity.NumericID,
		Status:       model.Status{State: model.StateSuccess},
	})
}

func (s *lookupService) State() model.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *lookupService) Invalidate(username string) {
	key := IdentityKey(username)
	if raw, ok := s.cache.Get(key); ok {
		if identity, err := DecodeIdentity(raw); err == nil {
			s.InvalidateRepositories(identity.NumericID)
		}
	}
	s.cache.Delete(key)
}

func (s *lookupService) InvalidateRepositories(numericID string) {
	s.cache.Delete(RepoKey(numericID))
	s.cache.Delete(RepoTimestampKey(numericID))
}

// do runs fn once per key for every concurrent caller. fn gets a context that
// carries the first caller's values but not its cancellation, so one caller
// giving up cannot fail the others; each caller still stops waiting when its
// own ctx is done.
func (s *lookupService) do(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	flight := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		return fn(flight)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolveIdentity consults the identity cache, which has no TTL, before
// asking upstream.
func (s *lookupService) resolveIdentity(ctx context.Context, username string) (model.Identity, error) {
	key := IdentityKey(username)
	v, err := s.do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if raw, ok := s.cache.Get(key); ok {
			identity, err := DecodeIdentity(raw)
			if err == nil {
				s.log.WithField("key", key).Debug("identity cache hit")
				return identity, nil
			}
			s.log.WithError(err).WithField("key", key).Warn("evicting corrupt identity entry")
			s.cache.Delete(key)
		}

		identity, found, err := s.client.ResolveUser(ctx, username)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", common.ErrUserNotFound, username)
		}

		raw, err := EncodeIdentity(identity)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
		}
		s.cache.Set(key, raw)
		return identity, nil
	})
	if err != nil {
		return model.Identity{}, err
	}
	return v.(model.Identity), nil
}

// repositories serves a fresh cached listing or refetches. Expired, partial
// and corrupt entries are evicted before the network call.
func (s *lookupService) repositories(ctx context.Context, numericID string) ([]model.Repository, error) {
	key, tsKey := RepoKey(numericID), RepoTimestampKey(numericID)
	v, err := s.do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if repos, ok := s.cachedRepositories(key, tsKey); ok {
			return repos, nil
		}
		s.cache.Delete(key)
		s.cache.Delete(tsKey)

		repos, err := s.client.ListRepositories(ctx, numericID)
		if err != nil {
			return nil, err
		}

		payload, err := EncodeRepositories(repos)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
		}
		common.SetPair(s.cache, key, payload, tsKey, EncodeTimestamp(s.now()))
		return repos, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]model.Repository)), nil
}

func (s *lookupService) cachedRepositories(key, tsKey string) ([]model.Repository, bool) {
	log := s.log.WithField("key", key)

	raw, ok := s.cache.Get(key)
	rawTS, okTS := s.cache.Get(tsKey)
	if !ok || !okTS {
		if ok != okTS {
			log.Warn("repository entry without its timestamp pair")
		}
		return nil, false
	}

	fetchedAt, err := DecodeTimestamp(rawTS)
	if err != nil {
		log.WithError(err).Warn("evicting corrupt repository timestamp")
		return nil, false
	}
	now := s.now()
	if fetchedAt.After(now) {
		log.WithField("fetched_at", fetchedAt).Warn("evicting repository entry stamped in the future")
		return nil, false
	}
	if !Fresh(fetchedAt, now, s.ttl) {
		log.WithField("fetched_at", fetchedAt).Debug("repository entry expired")
		return nil, false
	}

	repos, err := DecodeRepositories(raw)
	if err != nil {
		log.WithError(err).Warn("evicting corrupt repository entry")
		return nil, false
	}
	log.Debug("repository cache hit")
	return repos, true
}

func (s *lookupService) failed(log *logrus.Entry, target string, err error) model.Result {
	kind := common.KindOf(err)
	if kind == common.KindCacheCorruption {
		kind = common.KindTransportError
	}
	log.WithError(err).WithField("kind", kind).Warn("lookup failed")
	return model.Result{
		Target: target,
		Status: model.Status{State: model.StateError, Kind: kind},
	}
}

// begin starts a new request; any older in-flight request becomes stale.
func (s *lookupService) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *lookupService) superseded(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen != s.generation
}

// publish stores res as the current state unless gen is stale.
func (s *lookupService) publish(gen uint64, res model.Result) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.state = res
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range s.listeners {
		fn(res)
	}
	return true
}

func (s *lookupService) finish(gen uint64, res model.Result) model.Result {
	if !s.publish(gen, res) {
		res.Superseded = true
	}
	return res
}

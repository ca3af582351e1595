package market

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/apperrors"
	"github.com/themis-intel/themis-engine/pkg/audit"
	"github.com/themis-intel/themis-engine/pkg/config"
	"github.com/themis-intel/themis-engine/pkg/logging"
	"github.com/themis-intel/themis-engine/pkg/sql"
)

// tickerPattern bounds accepted tickers after uppercasing: symbols like
// AAPL, BRK.B, BTC-USD.
var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// defaultMentionsWindowDays is the timeline lookback when the caller does
// not pick one.
const defaultMentionsWindowDays = 90

// Service answers market analytics requests, with input hardening on the
// ticker parameter and a TTL cache in front of the trending view.
type Service interface {
	// MentionsTimeline returns the per-day mention series for one ticker.
	// The ticker is normalized and validated; rejected input wraps
	// apperrors.ErrInvalidInput.
	MentionsTimeline(ctx context.Context, ticker string, windowDays int, includeInferred bool) ([]MentionPoint, error)

	// Trending returns the trending list, served from cache within the
	// TTL for a given (windowDays, limit) pair. Zero values take the
	// configured defaults.
	Trending(ctx context.Context, windowDays, limit int) ([]TrendingSecurity, error)
}

type marketService struct {
	store   Store
	auditor *audit.SecurityAuditor
	cfg     config.MarketConfig
	cache   *ttlcache.Cache[string, any]
	cacheMu sync.RWMutex
	logger  *zap.Logger
}

// NewService creates the market service and its trending cache.
func NewService(store Store, auditor *audit.SecurityAuditor, cfg config.MarketConfig, logger *zap.Logger) Service {
	// Touch-on-hit is disabled so the TTL bounds staleness even for keys
	// that are read continuously.
	cache := ttlcache.New(
		ttlcache.WithTTL[string, any](cfg.CacheTTL()),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	return &marketService{
		store:   store,
		auditor: auditor,
		cfg:     cfg,
		cache:   cache,
		logger:  logger.Named("market"),
	}
}

var _ Service = (*marketService)(nil)

func (s *marketService) MentionsTimeline(ctx context.Context, ticker string, windowDays int, includeInferred bool) ([]MentionPoint, error) {
	normalized, err := s.normalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if windowDays <= 0 {
		windowDays = defaultMentionsWindowDays
	}

	points, err := s.store.MentionsTimeline(ctx, normalized, windowDays, includeInferred)
	if err != nil {
		return nil, fmt.Errorf("failed to load mentions timeline: %w", err)
	}

	return points, nil
}

func (s *marketService) Trending(ctx context.Context, windowDays, limit int) ([]TrendingSecurity, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.TrendingWindowDays
	}
	if limit <= 0 {
		limit = s.cfg.TrendingLimit
	}

	if cached := s.getCachedTrending(windowDays, limit); cached != nil {
		s.logger.Debug("trending served from cache",
			zap.Int("window_days", windowDays),
			zap.Int("limit", limit),
		)
		return cached, nil
	}

	trending, err := s.store.Trending(ctx, windowDays, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trending securities: %w", err)
	}

	s.setCachedTrending(windowDays, limit, trending)
	return trending, nil
}

// normalizeTicker uppercases and shape-checks the untrusted ticker. The
// libinjection scan runs first so payloads the shape check would also
// reject still land in the audit trail.
func (s *marketService) normalizeTicker(ticker string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(ticker))

	if hit := sql.CheckParameterForInjection("ticker", normalized); hit != nil {
		s.auditor.LogInjectionAttempt("", audit.InjectionDetails{
			ParamName:   "ticker",
			ParamValue:  logging.TruncateString(normalized, logging.MaxQueryLogLength),
			Fingerprint: hit.Fingerprint,
		})
		return "", fmt.Errorf("%w: ticker failed injection screening", apperrors.ErrInvalidInput)
	}

	if !tickerPattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: ticker must be 1-12 characters of A-Z, 0-9, '.' or '-'", apperrors.ErrInvalidInput)
	}

	return normalized, nil
}

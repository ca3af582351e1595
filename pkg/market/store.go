// Package market provides mention analytics over the THEMIS ingest
// tables: per-ticker mention timelines and a trending-securities view.
package market

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/themis-intel/themis-engine/pkg/database"
)

// MentionPoint is one day of mention activity for a ticker, split by
// securities.source. Days without qualifying mentions do not appear.
type MentionPoint struct {
	Day            string `json:"day"`
	Ticker         string `json:"ticker"`
	MentionCount   int    `json:"mention_count"`
	MentionedCount int    `json:"mentioned_count"`
	InferredCount  int    `json:"inferred_count"`
}

// TrendingSecurity is one entry of the trending list.
type TrendingSecurity struct {
	Ticker       string `json:"ticker"`
	AssetType    string `json:"asset_type"`
	MentionCount int    `json:"mention_count"`
	ThemeCount   int    `json:"theme_count"`
	ChannelCount int    `json:"channel_count"`
}

// Store reads mention analytics from the analyst database.
type Store interface {
	// MentionsTimeline returns per-day mention counts for ticker within
	// the trailing window. Timing follows the video's publication
	// timestamp, not ingest time. includeInferred=false counts explicit
	// mentions only.
	MentionsTimeline(ctx context.Context, ticker string, windowDays int, includeInferred bool) ([]MentionPoint, error)

	// Trending returns the most mentioned securities ingested within the
	// trailing window, ordered by mention count descending.
	Trending(ctx context.Context, windowDays, limit int) ([]TrendingSecurity, error)
}

type pgStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStore creates a Store on the shared connection pool.
func NewStore(db *database.DB, logger *zap.Logger) Store {
	return &pgStore{db: db, logger: logger.Named("market_store")}
}

var _ Store = (*pgStore)(nil)

// The join chain follows the ingest hierarchy: a security belongs to a
// theme, a theme to an analyzed chunk, a chunk to a video.
const mentionsTimelineHead = `
SELECT
    v.published_at::date AS day,
    COUNT(*) AS mention_count,
    COUNT(*) FILTER (WHERE s.source = 'mentioned') AS mentioned_count,
    COUNT(*) FILTER (WHERE s.source = 'inferred') AS inferred_count
FROM securities s
JOIN investment_themes it ON it.id = s.theme_id
JOIN chunk_analyses ca ON ca.id = it.chunk_id
JOIN videos v ON v.video_id = ca.video_id
WHERE s.ticker = $1
  AND v.published_at >= $2`

const mentionsTimelineTail = `
GROUP BY v.published_at::date
ORDER BY day`

func (s *pgStore) MentionsTimeline(ctx context.Context, ticker string, windowDays int, includeInferred bool) ([]MentionPoint, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	query := mentionsTimelineHead
	if !includeInferred {
		query += "\n  AND s.source = 'mentioned'"
	}
	query += mentionsTimelineTail

	rows, err := s.db.Query(ctx, query, ticker, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query mentions timeline: %w", err)
	}
	defer rows.Close()

	points := make([]MentionPoint, 0)
	for rows.Next() {
		var (
			day   time.Time
			point MentionPoint
		)
		if err := rows.Scan(&day, &point.MentionCount, &point.MentionedCount, &point.InferredCount); err != nil {
			return nil, fmt.Errorf("failed to scan mention point: %w", err)
		}
		point.Day = day.Format("2006-01-02")
		point.Ticker = ticker
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mention points: %w", err)
	}

	s.logger.Debug("mentions timeline loaded",
		zap.String("ticker", ticker),
		zap.Int("window_days", windowDays),
		zap.Int("days_with_mentions", len(points)),
	)

	return points, nil
}

// Trending windows on securities.created_at (ingest time): a security row
// is one mention, and freshly ingested mentions are what make a ticker
// trend. The timeline view windows on publication time instead.
const trendingQuery = `
SELECT
    s.ticker,
    COALESCE(s.asset_type, '') AS asset_type,
    COUNT(*) AS mention_count,
    COUNT(DISTINCT it.theme_name) AS theme_count,
    COUNT(DISTINCT v.channel_id) AS channel_count
FROM securities s
LEFT JOIN investment_themes it ON it.id = s.theme_id
LEFT JOIN chunk_analyses ca ON ca.id = it.chunk_id
LEFT JOIN videos v ON v.video_id = ca.video_id
WHERE s.created_at >= $1
GROUP BY s.ticker, s.asset_type
ORDER BY mention_count DESC, s.ticker
LIMIT $2`

func (s *pgStore) Trending(ctx context.Context, windowDays, limit int) ([]TrendingSecurity, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	rows, err := s.db.Query(ctx, trendingQuery, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending securities: %w", err)
	}
	defer rows.Close()

	trending := make([]TrendingSecurity, 0, limit)
	for rows.Next() {
		var entry TrendingSecurity
		if err := rows.Scan(&entry.Ticker, &entry.AssetType, &entry.MentionCount, &entry.ThemeCount, &entry.ChannelCount); err != nil {
			return nil, fmt.Errorf("failed to scan trending security: %w", err)
		}
		trending = append(trending, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trending securities: %w", err)
	}

	return trending, nil
}

package market

import "fmt"

func trendingCacheKey(windowDays, limit int) string {
	return fmt.Sprintf("trending:%d:%d", windowDays, limit)
}

func (s *marketService) getCachedTrending(windowDays, limit int) []TrendingSecurity {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	cached := s.cache.Get(trendingCacheKey(windowDays, limit))
	if cached == nil {
		return nil
	}
	return cached.Value().([]TrendingSecurity)
}

func (s *marketService) setCachedTrending(windowDays, limit int, trending []TrendingSecurity) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache.Set(trendingCacheKey(windowDays, limit), trending, s.cfg.CacheTTL())
}

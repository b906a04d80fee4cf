package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"connect-api/internal/logger"
	"connect-api/internal/pkg/errors"

	"github.com/sirupsen/logrus"
)

// CompanyService proxies the hosted company-data platform. Responses are
// cached in Redis so repeat lookups within the TTL don't burn quota against
// the upstream.
type CompanyService interface {
	Search(ctx context.Context, name string) (*CompanyProfile, error)
	KeyMetrics(ctx context.Context, domain string) (json.RawMessage, error)
}

type CompanyProfile struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type companyService struct {
	baseURL     string
	accessToken string
	cache       CacheService
	cacheTTL    time.Duration
	client      *http.Client
}

func NewCompanyService(cache CacheService) CompanyService {
	return &companyService{
		baseURL:     os.Getenv("PLATFORM_API_URL"),
		accessToken: os.Getenv("PLATFORM_ACCESS_TOKEN"),
		cache:       cache,
		cacheTTL:    15 * time.Minute,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *companyService) Search(ctx context.Context, name string) (*CompanyProfile, error) {
	if name == "" {
		return nil, errors.ErrInvalidInput
	}

	cacheKey := "company:search:" + name
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			var profile CompanyProfile
			if err := json.Unmarshal([]byte(cached), &profile); err == nil {
				return &profile, nil
			}
		}
	}

	body, err := json.Marshal(map[string]interface{}{
		"filter": map[string]string{"companyName": name},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/companies/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("accesstoken", s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "company search request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(fmt.Errorf("upstream status %d", resp.StatusCode), "company search request failed")
	}

	var payload struct {
		Result []struct {
			Name   string `json:"name"`
			Domain string `json:"domain"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "failed to decode company search response")
	}
	if len(payload.Result) == 0 {
		return nil, errors.ErrNotFound
	}

	profile := &CompanyProfile{
		Name:   payload.Result[0].Name,
		Domain: payload.Result[0].Domain,
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, profile, s.cacheTTL); err != nil {
			logger.Logger.WithFields(logrus.Fields{
				"error": err,
				"key":   cacheKey,
			}).Warn("Failed to cache company profile")
		}
	}

	return profile, nil
}

func (s *companyService) KeyMetrics(ctx context.Context, domain string) (json.RawMessage, error) {
	if domain == "" {
		return nil, errors.ErrInvalidInput
	}

	cacheKey := "company:metrics:" + domain
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil {
			return json.RawMessage(cached), nil
		}
	}

	endpoint := fmt.Sprintf("%s/companies/%s/key-metrics", s.baseURL, url.PathEscape(domain))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accesstoken", s.accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "key metrics request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrap(fmt.Errorf("upstream status %d", resp.StatusCode), "key metrics request failed")
	}

	var metrics json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&metrics); err != nil {
		return nil, errors.Wrap(err, "failed to decode key metrics response")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, metrics, s.cacheTTL); err != nil {
			logger.Logger.WithFields(logrus.Fields{
				"error": err,
				"key":   cacheKey,
			}).Warn("Failed to cache key metrics")
		}
	}

	return metrics, nil
}

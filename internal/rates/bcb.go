// Package rates fetches and compounds the Banco Central SGS percentage
// series (CDI daily, IPCA monthly) used by fixed-income projections.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/carteiralab/carteira/internal/common"
)

// Observation is one (date, percentage) point of an SGS series.
type Observation struct {
	Date  time.Time
	Value float64
}

// Service fetches SGS series with process-lifetime memoization. A closed
// historical window of official data never changes, so cached windows are
// never invalidated.
type Service struct {
	mu    sync.RWMutex
	cache map[string][]Observation

	httpClient *http.Client
	baseURL    string
	logger     *common.Logger
}

// NewService creates a rates service from configuration.
func NewService(cfg *common.BCBConfig, logger *common.Logger) *Service {
	return &Service{
		cache:      make(map[string][]Observation),
		httpClient: &http.Client{Timeout: cfg.GetTimeout()},
		baseURL:    cfg.BaseURL,
		logger:     logger,
	}
}

func cacheKey(series int, start, end time.Time) string {
	return fmt.Sprintf("%d|%s|%s", series, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

// Series returns the ordered observations of an SGS series over [start, end].
// Successful responses are cached for the process lifetime, including empty
// windows; transport failures are not cached so the next call retries.
func (s *Service) Series(ctx context.Context, series int, start, end time.Time) ([]Observation, error) {
	key := cacheKey(series, start, end)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	observations, err := s.fetchSeries(ctx, series, start, end)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[key] = observations
	s.mu.Unlock()
	return observations, nil
}

// sgsEntry is one row of the SGS JSON payload. Dates are dd/MM/yyyy and
// values are decimal strings.
type sgsEntry struct {
	Data  string `json:"data"`
	Valor string `json:"valor"`
}

func (s *Service) fetchSeries(ctx context.Context, series int, start, end time.Time) ([]Observation, error) {
	url := fmt.Sprintf("%s/bcdata.sgs.%d/dados?formato=json&dataInicial=%s&dataFinal=%s",
		s.baseURL, series, start.Format("02/01/2006"), end.Format("02/01/2006"))

	var payload []sgsEntry
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sgs returned %d", resp.StatusCode)
		}
		return json.Unmarshal(body, &payload)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(150*time.Millisecond), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		s.logger.Debug().Int("series", series).Err(err).Msg("sgs fetch failed")
		return nil, err
	}

	observations := make([]Observation, 0, len(payload))
	for _, entry := range payload {
		date, err := time.Parse("02/01/2006", entry.Data)
		if err != nil {
			continue
		}
		value, ok := common.ParseDecimal(entry.Valor)
		if !ok {
			continue
		}
		observations = append(observations, Observation{Date: date, Value: value})
	}
	return observations, nil
}

// Compound multiplies (1 + pct/100 × multiplier) across every observation of
// a series in [start, end]. When the series stops short of end, the last
// observation is held constant and compounded over the missing span in
// stepDays steps (1 for daily series, 30 for the monthly IPCA cadence).
// ok is false when the series yielded nothing; callers fall back to a flat
// annualized factor.
func (s *Service) Compound(ctx context.Context, series int, start, end time.Time, multiplier float64, stepDays int) (float64, bool) {
	if start.After(end) {
		return 1.0, true
	}

	observations, err := s.Series(ctx, series, start, end)
	if err != nil || len(observations) == 0 {
		return 1.0, false
	}

	factor := 1.0
	for _, obs := range observations {
		factor *= 1 + (obs.Value/100.0)*multiplier
	}

	last := observations[len(observations)-1]
	missingDays := common.DaysBetween(last.Date, end)
	if missingDays > 0 && stepDays > 0 {
		stepFactor := 1 + (last.Value/100.0)*multiplier
		factor *= math.Pow(stepFactor, float64(missingDays)/float64(stepDays))
	}
	return factor, true
}

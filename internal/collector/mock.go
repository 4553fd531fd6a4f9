package collector

import (
	"context"
	"fmt"
	"math"
	"time"

	"PriceOracle/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price    float64
	Days     int
	Payload  *DailyPayload
	Articles []Article
	DailyErr error
	NewsErr  error
	End      time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDaily(_ context.Context, symbol string) (*DailyPayload, error) {
	if m.DailyErr != nil {
		return nil, m.DailyErr
	}
	if m.Payload != nil {
		return m.Payload, nil
	}
	days := m.Days
	if days == 0 {
		days = 100
	}
	end := m.End
	if end.IsZero() {
		end = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	}
	return generateMockPayload(m.Price, days, end), nil
}

func (m *MockFetcher) FetchNews(_ context.Context, baseSymbol string) ([]Article, error) {
	if m.NewsErr != nil {
		return nil, m.NewsErr
	}
	return m.Articles, nil
}

func generateMockPayload(basePrice float64, count int, end time.Time) *DailyPayload {
	if basePrice <= 0 {
		basePrice = 100
	}
	series := make(map[string]DailyBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(i)/6) + float64(i-count/2)*0.001)
		day := end.AddDate(0, 0, -(count - 1 - i))
		series[day.Format(model.DateLayout)] = DailyBar{
			Close:  fmt.Sprintf("%.4f", p),
			Volume: fmt.Sprintf("%d", 1000000+(i%7)*25000),
		}
	}
	return &DailyPayload{Series: series}
}

package views

import (
	"context"
	"sync"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	"github.com/okian/weatherscope/internal/router"
)

type page struct {
	Title    string
	HomeHref string
}

type errorPage struct {
	page
	Message string
}

type cityCard struct {
	City        string
	Current     *weatherapi.WeatherData
	Average     *weatherapi.AverageWeather
	Err         string
	TrendsHref  string
	HistoryHref string
}

type homePage struct {
	page
	Days   int
	Cities []cityCard
}

// Summary holds the temperature range of a series.
type Summary struct {
	Min, Max, Mean float64
}

// Summarize returns the min, max and mean temperature of rows. ok is false
// for an empty series.
func Summarize(rows []weatherapi.WeatherData) (s Summary, ok bool) {
	if len(rows) == 0 {
		return Summary{}, false
	}
	s.Min, s.Max = rows[0].Temperature, rows[0].Temperature
	var sum float64
	for _, r := range rows {
		s.Min = min(s.Min, r.Temperature)
		s.Max = max(s.Max, r.Temperature)
		sum += r.Temperature
	}
	s.Mean = sum / float64(len(rows))
	return s, true
}

type seriesPage struct {
	page
	City        string
	Days        int
	Rows        []weatherapi.WeatherData
	Summary     Summary
	Err         string
	TrendsHref  string
	HistoryHref string
}

func (p *Pages) homeData(ctx context.Context, _ router.Props) (any, error) {
	cards := make([]cityCard, len(p.cities))
	currentErrs := make([]error, len(p.cities))
	averageErrs := make([]error, len(p.cities))

	var wg sync.WaitGroup
	for i, city := range p.cities {
		cards[i] = cityCard{
			City:        city,
			TrendsHref:  p.href(RouteTrends, map[string]string{"city": city}),
			HistoryHref: p.href(RouteHistory, map[string]string{"city": city}),
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp, err := p.client.GetCurrentWeather(ctx, city)
			if err != nil {
				currentErrs[i] = err
				return
			}
			cards[i].Current = &resp.Data
		}()
		go func() {
			defer wg.Done()
			resp, err := p.client.GetAverageWeather(ctx, city, p.days)
			if err != nil {
				averageErrs[i] = err
				return
			}
			cards[i].Average = &resp.Data
		}()
	}
	wg.Wait()

	for i, city := range p.cities {
		switch {
		case currentErrs[i] != nil:
			cards[i].Err = p.fail(ctx, weatherapi.OpCurrentWeather, city, currentErrs[i])
		case averageErrs[i] != nil:
			cards[i].Err = p.fail(ctx, weatherapi.OpAverageWeather, city, averageErrs[i])
		}
	}
	return homePage{
		page:   page{Title: "Current weather", HomeHref: p.href(RouteHome, nil)},
		Days:   p.days,
		Cities: cards,
	}, nil
}

func (p *Pages) seriesBase(title, city string) seriesPage {
	params := map[string]string{"city": city}
	return seriesPage{
		page:        page{Title: title, HomeHref: p.href(RouteHome, nil)},
		City:        city,
		Days:        p.days,
		TrendsHref:  p.href(RouteTrends, params),
		HistoryHref: p.href(RouteHistory, params),
	}
}

func (p *Pages) trendsData(ctx context.Context, props router.Props) (any, error) {
	city := props["city"]
	if city == "" {
		return nil, ErrMissingCity
	}
	d := p.seriesBase("Trends for "+city, city)
	resp, err := p.client.GetTrends(ctx, city, p.days)
	if err != nil {
		d.Err = p.fail(ctx, weatherapi.OpTrends, city, err)
		return d, nil
	}
	d.Rows = resp.Data
	d.Summary, _ = Summarize(resp.Data)
	return d, nil
}

func (p *Pages) historyData(ctx context.Context, props router.Props) (any, error) {
	city := props["city"]
	if city == "" {
		return nil, ErrMissingCity
	}
	d := p.seriesBase("History for "+city, city)
	resp, err := p.client.GetHistory(ctx, city)
	if err != nil {
		d.Err = p.fail(ctx, weatherapi.OpHistory, city, err)
		return d, nil
	}
	d.Rows = resp.Data
	return d, nil
}

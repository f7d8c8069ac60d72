package probe

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	"github.com/okian/weatherscope/pkg/logger"
)

// operations in report order.
var operations = []string{
	weatherapi.OpCurrentWeather,
	weatherapi.OpAverageWeather,
	weatherapi.OpTrends,
	weatherapi.OpHistory,
}

type job struct {
	op   string
	city string
}

type result struct {
	job
	elapsed time.Duration
	err     error
}

// Run calls every operation once per city and reports the outcome. A failed
// call is recorded, not retried. Run returns an error only when the probe
// cannot start or ctx ends before every call finished.
func Run(ctx context.Context, client Client, cfg Config) (*Report, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	cfg.Cities = uniqueCities(cfg.Cities)
	if len(cfg.Cities) == 0 {
		return nil, ErrNoCities
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Named("probe")
	log.Info(ctx, "starting probe",
		logger.Int("cities", len(cfg.Cities)),
		logger.Int("days", cfg.Days),
		logger.Int("workers", cfg.Workers))

	report := &Report{
		Cities:    cfg.Cities,
		Days:      cfg.Days,
		Workers:   cfg.Workers,
		StartTime: time.Now(),
	}

	jobs := make(chan job, cfg.Workers*WorkerChannelMultiplier)
	results := make(chan result, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				start := time.Now()
				err := call(ctx, client, j, cfg.Days)
				results <- result{job: j, elapsed: time.Since(start), err: err}
			}
		}()
	}

	// Feed jobs until done or canceled
	go func() {
		defer close(jobs)
		for _, city := range cfg.Cities {
			for _, op := range operations {
				select {
				case jobs <- job{op: op, city: city}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	byOp := make(map[string]*OpStats, len(operations))
	totals := make(map[string]time.Duration, len(operations))
	for _, op := range operations {
		byOp[op] = &OpStats{Operation: op}
	}
	for res := range results {
		s := byOp[res.op]
		s.Calls++
		totals[res.op] += res.elapsed
		s.MaxTime = max(s.MaxTime, res.elapsed)
		if res.err != nil {
			s.Failed++
			if s.Failures == nil {
				s.Failures = make(map[string]string)
			}
			s.Failures[res.city] = res.err.Error()
			log.Debug(ctx, "probe call failed",
				logger.String("operation", res.op),
				logger.String("city", res.city),
				logger.Error(res.err))
			continue
		}
		s.Successful++
	}

	for _, op := range operations {
		s := byOp[op]
		if s.Calls > 0 {
			s.MeanTime = totals[op] / time.Duration(s.Calls)
		}
		report.Operations = append(report.Operations, *s)
	}
	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("probe interrupted: %w", err)
	}
	log.Info(ctx, "probe completed",
		logger.Int("failed", report.Failed()),
		logger.Duration("duration", report.Duration))
	return report, nil
}

// uniqueCities drops repeats, keeping the first occurrence of each city.
func uniqueCities(cities []string) []string {
	seen := make(map[string]bool, len(cities))
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func call(ctx context.Context, c Client, j job, days int) error {
	var err error
	switch j.op {
	case weatherapi.OpCurrentWeather:
		_, err = c.GetCurrentWeather(ctx, j.city)
	case weatherapi.OpAverageWeather:
		_, err = c.GetAverageWeather(ctx, j.city, days)
	case weatherapi.OpTrends:
		_, err = c.GetTrends(ctx, j.city, days)
	case weatherapi.OpHistory:
		_, err = c.GetHistory(ctx, j.city)
	default:
		err = fmt.Errorf("unknown operation %q", j.op)
	}
	return err
}

// Write prints the report as an aligned table.
func (r *Report) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "OPERATION\tCALLS\tOK\tFAILED\tMEAN\tMAX\n")
	for _, op := range r.Operations {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%s\n",
			op.Operation, op.Calls, op.Successful, op.Failed,
			op.MeanTime.Round(time.Millisecond), op.MaxTime.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, op := range r.Operations {
		cities := make([]string, 0, len(op.Failures))
		for city := range op.Failures {
			cities = append(cities, city)
		}
		slices.Sort(cities)
		for _, city := range cities {
			if _, err := fmt.Fprintf(w, "%s %s: %s\n", op.Operation, city, op.Failures[city]); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintf(w, "%d cities, %d workers, %s\n", len(r.Cities), r.Workers, r.Duration.Round(time.Millisecond))
	return err
}

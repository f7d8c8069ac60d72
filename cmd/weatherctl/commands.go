package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/weatherscope/internal/adapters/weatherapi"
	app "github.com/okian/weatherscope/internal/app"
	"github.com/okian/weatherscope/internal/config"
	"github.com/okian/weatherscope/internal/probe"
	"github.com/okian/weatherscope/pkg/logger"
)

// cli carries the flags shared by every command.
type cli struct {
	cfg     *config.Config
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "weatherctl",
		Short: "Query the WeatherScope backend from the command line",
		Long: `weatherctl calls the WeatherScope backend with the same client the
dashboard uses. Settings come from .env, the YAML file named by
WEATHERSCOPE_CONFIG and WEATHERSCOPE_ environment variables; flags win.

Examples:
  weatherctl current Paris
  weatherctl avg Paris --days 7
  weatherctl trends "New York" --days 30
  weatherctl probe --cities London,Paris --workers 8`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "Backend base URL (default from config)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 0, "Request timeout, 0 for none (default from config)")

	root.AddCommand(
		c.currentCmd(),
		c.avgCmd(),
		c.trendsCmd(),
		c.historyCmd(),
		c.routesCmd(),
		c.probeCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if err := logger.InitWith(cmd.ErrOrStderr(), cfg.LogFormat); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	if c.baseURL == "" {
		c.baseURL = cfg.APIBaseURL
	}
	if !cmd.Flags().Changed("timeout") {
		c.timeout = time.Duration(cfg.APITimeoutMS) * time.Millisecond
	}
	c.cfg = cfg
	return nil
}

func (c *cli) client() (*weatherapi.Client, error) {
	return weatherapi.New(c.baseURL,
		weatherapi.WithHTTPClient(&http.Client{Timeout: c.timeout}),
		weatherapi.WithUserAgent("weatherctl"),
	)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) currentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current CITY",
		Short: "Fetch the current weather of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			resp, err := client.GetCurrentWeather(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
}

func (c *cli) avgCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "avg CITY",
		Short: "Fetch the average temperature of a city over the last days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			resp, err := client.GetAverageWeather(cmd.Context(), args[0], c.days(cmd, days))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default from config)")
	return cmd
}

func (c *cli) trendsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "trends CITY",
		Short: "Fetch the observations of a city over the last days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			resp, err := client.GetTrends(cmd.Context(), args[0], c.days(cmd, days))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default from config)")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history CITY",
		Short: "Fetch every stored observation of a city",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			resp, err := client.GetHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp.Data)
		},
	}
}

// days returns the --days flag when given, the configured default otherwise.
// The value is forwarded as is.
func (c *cli) days(cmd *cobra.Command, flag int) int {
	if cmd.Flags().Changed("days") {
		return flag
	}
	return c.cfg.DefaultDays
}

func (c *cli) routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the dashboard route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := app.New(app.WithConfig(c.cfg), app.WithAPIBaseURL(c.baseURL), app.WithLogger(logger.Nop()))
			if err := svc.Start(cmd.Context()); err != nil {
				return err
			}
			defer svc.Stop()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATH\tVIEW\tPROPS")
			for _, r := range svc.Router().Routes() {
				view := "eager"
				if r.Component.IsDeferred() {
					view = "deferred"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", r.Name, r.Path, view, r.Props)
			}
			return tw.Flush()
		},
	}
}

func (c *cli) probeCmd() *cobra.Command {
	var (
		cities  string
		days    int
		workers int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Call every operation for every city once and report the outcome",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			list := c.cfg.Cities
			if cities != "" {
				list = splitCities(cities)
			}
			report, err := probe.Run(cmd.Context(), client, probe.Config{
				Cities:  list,
				Days:    c.days(cmd, days),
				Workers: workers,
				Logger:  logger.Get(),
			})
			if err != nil {
				return err
			}
			if asJSON {
				err = printJSON(cmd.OutOrStdout(), report)
			} else {
				err = report.Write(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}
			if n := report.Failed(); n > 0 {
				return fmt.Errorf("%d probe calls failed", n)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&cities, "cities", "", "Comma-separated cities (default from config)")
	cmd.Flags().IntVar(&days, "days", 0, "Window in days (default from config)")
	cmd.Flags().IntVar(&workers, "workers", probe.DefaultWorkers, "Number of concurrent workers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func splitCities(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

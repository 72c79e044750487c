package main

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"retail-dashboard/internal/auth"
	"retail-dashboard/internal/backend"
	"retail-dashboard/internal/config"
	"retail-dashboard/internal/observability"
	"retail-dashboard/internal/services"
)

const tokenEnv = "RETAIL_TOKEN"

// app is what every subcommand runs against, built once the persistent
// flags are parsed.
type app struct {
	cfgFile string
	token   string
	verbose bool

	cfg       *config.Config
	logger    *slog.Logger
	principal auth.Principal
	dashboard *services.Dashboard
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "reportctl",
		Short:         "Export and summarize commodity transactions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `reportctl talks to the retail backend with your token and applies the
same role rules as the dashboard.

Example Usage:
  reportctl export --from 2024-01-01 --to 2024-01-31 --out ./reports
  reportctl export --shop 64f0c2 --status success
  reportctl summary --commodity sugar`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", os.Getenv("CONFIG_FILE"), "Path to a YAML configuration file")
	root.PersistentFlags().StringVar(&a.token, "token", "", "Bearer token (defaults to $"+tokenEnv+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newExportCmd(a), newSummaryCmd(a), newVersionCmd())
	return root
}

// setup loads configuration, decodes the token and builds the dashboard.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(a.cfgFile)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logger.Level = "debug"
	}
	a.cfg = cfg
	a.logger = observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)

	token := a.token
	if token == "" {
		token = os.Getenv(tokenEnv)
	}
	if token == "" {
		return fmt.Errorf("no token: pass --token or set %s", tokenEnv)
	}
	if a.principal, err = auth.Decode(token); err != nil {
		return err
	}

	client, err := backend.NewClient(cfg.Backend, a.logger)
	if err != nil {
		return err
	}
	a.dashboard = services.NewDashboard(client, nil, a.logger)
	a.logger.Debug("reportctl ready", "role", a.principal.Role.String(), "backend_url", cfg.Backend.BaseURL)
	return nil
}

// filterFlags are shared by the commands that read transactions.
type filterFlags struct {
	shop      string
	from      string
	to        string
	commodity string
	status    string
	search    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.shop, "shop", "", "Shop id for a single-shop report")
	cmd.Flags().StringVar(&f.from, "from", "", "Start date (yyyy-mm-dd)")
	cmd.Flags().StringVar(&f.to, "to", "", "End date (yyyy-mm-dd), inclusive")
	cmd.Flags().StringVar(&f.commodity, "commodity", "", "Commodity name, e.g. sugar")
	cmd.Flags().StringVar(&f.status, "status", "", "success, pending or failed")
	cmd.Flags().StringVar(&f.search, "search", "", "Search text matched against the role's search field")
}

func (f *filterFlags) parse(a *app) (services.Filter, error) {
	q := url.Values{}
	for k, v := range map[string]string{
		"startDate": f.from,
		"endDate":   f.to,
		"commodity": f.commodity,
		"status":    f.status,
		"search":    f.search,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return services.ParseFilter(q, a.cfg.Display.Location())
}

func (f *filterFlags) page(cmd *cobra.Command, a *app) (*services.Page, services.Filter, error) {
	filter, err := f.parse(a)
	if err != nil {
		return nil, services.Filter{}, err
	}
	ctx := cmd.Context()
	p := a.principal
	var page *services.Page
	if f.shop != "" {
		page, err = a.dashboard.ShopView(ctx, p.Token, p.Role, f.shop, filter)
	} else {
		page, err = a.dashboard.Global(ctx, p.Token, p.Role, filter)
	}
	return page, filter, err
}

// Command bimsearch runs attribute queries over building-model elements
// from the terminal, against PostgreSQL or a YAML seed file, and prints the
// scene calls a 3D engine would receive.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/krew-solutions/bimsearch-go/bimsearch/config"
	"github.com/krew-solutions/bimsearch-go/bimsearch/detail"
	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	"github.com/krew-solutions/bimsearch-go/bimsearch/executor"
	"github.com/krew-solutions/bimsearch-go/bimsearch/logging"
	"github.com/krew-solutions/bimsearch-go/bimsearch/option"
	query "github.com/krew-solutions/bimsearch-go/bimsearch/query/domain"
	"github.com/krew-solutions/bimsearch-go/bimsearch/session"
	storememory "github.com/krew-solutions/bimsearch-go/bimsearch/store/memory"
	storepg "github.com/krew-solutions/bimsearch-go/bimsearch/store/pg"
	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	dbURL      string
	seedFile   string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "bimsearch",
		Short:         "Attribute query engine for building-model elements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "bimsearch.toml", "config file path")
	root.PersistentFlags().StringVar(&flags.dbURL, "db", "", "PostgreSQL URL (overrides config)")
	root.PersistentFlags().StringVar(&flags.seedFile, "seed-file", "", "YAML element file, searched in memory instead of PostgreSQL")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newSearchCmd(flags))
	root.AddCommand(newSeedCmd(flags))
	return root
}

func (f *rootFlags) logger() *logging.Logger {
	if f.verbose {
		return logging.NewTextLogger(slog.LevelDebug)
	}
	return logging.Noop()
}

func (f *rootFlags) load() (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}
	if f.dbURL != "" {
		cfg.Database.URL = f.dbURL
	}
	return cfg, nil
}

// finder opens the element store selected by the flags. The returned close
// func is a no-op for the in-memory store.
func (f *rootFlags) finder(ctx context.Context, cfg config.Config, log *logging.Logger) (element.Finder, func(), error) {
	if f.seedFile != "" {
		file, err := os.Open(f.seedFile)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open seed file")
		}
		defer file.Close()
		records, err := storememory.LoadYAML(file)
		if err != nil {
			return nil, nil, err
		}
		return storememory.NewStore(records...), func() {}, nil
	}

	if cfg.Database.URL == "" {
		return nil, nil, errors.New("no database url configured; use --db, the config file, or --seed-file")
	}
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to database")
	}
	return storepg.NewStore(pool, log), pool.Close, nil
}

type searchFlags struct {
	attribute string
	operator  string
	value     string
	to        string
	not       bool
	text      string
	scope     []string
}

func newSearchCmd(root *rootFlags) *cobra.Command {
	flags := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run one query and print the matching elements",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), root, flags)
		},
	}
	cmd.Flags().StringVar(&flags.attribute, "attribute", string(query.AttrName), "attribute: Category, Name, ObjectType or Tag")
	cmd.Flags().StringVar(&flags.operator, "operator", string(query.OpInclude), "operator: equal, include, startsWith, endsWith or fromTo")
	cmd.Flags().StringVar(&flags.value, "value", "", "value to match (range start for fromTo)")
	cmd.Flags().StringVar(&flags.to, "to", "", "range end for fromTo")
	cmd.Flags().BoolVar(&flags.not, "not", false, "exclude matches instead of requiring them")
	cmd.Flags().StringVar(&flags.text, "text", "", "simple search text, shorthand for a Name/include row")
	cmd.Flags().StringSliceVar(&flags.scope, "scope", nil, "restrict to these container ids")
	return cmd
}

func runSearch(ctx context.Context, root *rootFlags, flags *searchFlags) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	log := root.logger()

	finder, closeStore, err := root.finder(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []executor.Option{
		executor.WithResultCap(cfg.Search.ResultCap),
		executor.WithLogger(log),
	}
	if cfg.Search.RateLimitPerSec > 0 {
		opts = append(opts, executor.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Search.RateLimitPerSec), 1)))
	}
	exec := executor.NewExecutor(finder, opts...)

	scene := &printingScene{out: os.Stdout}
	sync := viewer.NewSynchronizer(scene)
	ctrl := session.NewController(exec, sync,
		session.WithDebounce(cfg.Search.Debounce()),
		session.WithFitCamera(cfg.Viewer.FitCamera),
		session.WithDetails(detail.NewFetcher(finder, 0)),
		session.WithLogger(log),
	)
	ctrl.SetScope(flags.scope)

	ctrl.OnNotice().Attach(func(e session.NoticeEvent) {
		fmt.Printf("notice: %s\n", e.Message)
	})
	ctrl.OnGroupAppended().Attach(func(e session.GroupAppendedEvent) {
		fmt.Printf("%s: %d element(s)\n", e.Group.Name, len(e.Group.Items))
		for _, item := range e.Group.Items {
			fmt.Printf("  %-12s %-24s %s/%d\n", item.Category, item.Name, item.ContainerID, item.ExternalID)
		}
	})

	row, err := buildRow(flags)
	if err != nil {
		return err
	}
	if row != nil {
		ctrl.AddRow(*row)
	}
	return ctrl.Search(ctx)
}

func buildRow(flags *searchFlags) (*query.Row, error) {
	if flags.text != "" {
		return &query.Row{
			Attribute: query.AttrName,
			Operator:  query.OpInclude,
			Value:     flags.text,
			Logic:     query.LogicAnd,
		}, nil
	}
	if flags.value == "" {
		return nil, nil
	}

	attr := query.RowAttribute(flags.attribute)
	switch attr {
	case query.AttrCategory, query.AttrName, query.AttrObjectType, query.AttrTag:
	default:
		return nil, errors.Errorf("unknown attribute %q", flags.attribute)
	}
	op := query.RowOperator(flags.operator)
	switch op {
	case query.OpEqual, query.OpInclude, query.OpStartsWith, query.OpEndsWith, query.OpFromTo:
	default:
		return nil, errors.Errorf("unknown operator %q", flags.operator)
	}

	row := &query.Row{Attribute: attr, Operator: op, Value: flags.value, Logic: query.LogicAnd}
	if flags.not {
		row.Logic = query.LogicNot
	}
	if op == query.OpFromTo {
		if flags.to == "" {
			return nil, errors.New("fromTo needs --to")
		}
		row.ValueEnd = option.Some(flags.to)
	}
	return row, nil
}

func newSeedCmd(root *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load a YAML element file into PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), root, args[0])
		},
	}
	return cmd
}

func runSeed(ctx context.Context, root *rootFlags, path string) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("no database url configured")
	}

	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open seed file")
	}
	defer file.Close()
	records, err := storememory.LoadYAML(file)
	if err != nil {
		return err
	}
	// Records without a container get a fresh one, shared per file load.
	defaultContainer := uuid.NewString()
	for i := range records {
		if records[i].ContainerID == "" {
			records[i].ContainerID = defaultContainer
		}
	}

	log := root.logger()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	store := storepg.NewStore(pool, log)
	if err := store.InsertBatch(ctx, records); err != nil {
		return err
	}
	fmt.Printf("seeded %d element(s)\n", len(records))
	return nil
}

// printingScene narrates the calls a 3D engine would receive.
type printingScene struct {
	out *os.File
}

func (s *printingScene) Isolate(mapping viewer.Mapping) error {
	fmt.Fprintf(s.out, "scene: isolate %s\n", describeMapping(mapping))
	return nil
}

func (s *printingScene) SetAllVisible(visible bool) error {
	fmt.Fprintf(s.out, "scene: set all visible = %v\n", visible)
	return nil
}

func (s *printingScene) Highlight(layer string, mapping viewer.Mapping, additive, exclusive bool) error {
	fmt.Fprintf(s.out, "scene: highlight layer=%s %s\n", layer, describeMapping(mapping))
	return nil
}

func (s *printingScene) ClearHighlight(layer string) error {
	fmt.Fprintf(s.out, "scene: clear highlight layer=%s\n", layer)
	return nil
}

func (s *printingScene) FitCameraTo(mapping viewer.Mapping) error {
	fmt.Fprintf(s.out, "scene: fit camera to %s\n", describeMapping(mapping))
	return nil
}

func describeMapping(mapping viewer.Mapping) string {
	containers := make([]string, 0, len(mapping))
	total := 0
	for id, elems := range mapping {
		containers = append(containers, id)
		total += len(elems)
	}
	sort.Strings(containers)
	return fmt.Sprintf("%d element(s) in %d container(s) %v", total, len(containers), containers)
}

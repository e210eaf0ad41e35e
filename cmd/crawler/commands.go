package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os/signal"
	"sort"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/devraulu/rollcall/pkg/checkpoint"
	"github.com/devraulu/rollcall/pkg/config"
	"github.com/devraulu/rollcall/pkg/crawler"
	"github.com/devraulu/rollcall/pkg/fetch"
	"github.com/devraulu/rollcall/pkg/logger"
	"github.com/devraulu/rollcall/pkg/storage"
	"github.com/devraulu/rollcall/pkg/updater"
	"github.com/devraulu/rollcall/pkg/votes"
)

type app struct {
	configPath string
	cfg        *config.Config
	clock      crawler.Clock
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rollcall",
		Short:         "Crawl Senate roll-call votes into tabular records",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("couldn't load config: %w", err)
			}
			a.cfg = cfg
			logger.InitLogger(cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.toml", "path to the TOML config file")

	root.AddCommand(
		a.initCmd(),
		a.updateCmd(),
		a.sessionsCmd(),
		a.indexCmd(),
		a.voteCmd(),
		a.batchCmd(),
	)
	return root
}

func (a *app) crawler() *crawler.Crawler {
	f := fetch.New(fetch.Options{
		UserAgent:     a.cfg.Crawler.UserAgent,
		Timeout:       a.cfg.Crawler.GetTimeout(),
		RespectRobots: a.cfg.Politeness.RespectRobots,
	})
	var opts []crawler.Option
	if a.clock != nil {
		opts = append(opts, crawler.WithClock(a.clock))
	}
	return crawler.New(a.cfg, f, opts...)
}

func (a *app) storage(dir string) (storage.Storage, *storage.CSVStorage, error) {
	files, err := storage.NewCSVStorage(dir)
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.DSN == "" {
		return files, files, nil
	}

	pool, err := sql.Open("postgres", a.cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't open database: %w", err)
	}
	if err := storage.RunMigrations(pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	// The database goes first so a failed transaction stops before any file is written.
	return storage.Multi(storage.NewPostgresStorage(pool), files), files, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-ctx.Done()
		slog.Info("context done, stopping")
	}()
	return ctx, stop
}

func (a *app) initCmd() *cobra.Command {
	var (
		path  string
		years []int
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the project directories and checkpoint file",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := checkpoint.Init(path, years)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "project directory")
	cmd.Flags().IntSliceVar(&years, "years", []int{2016, 2017, 2018}, "years to keep updated")
	return cmd
}

func (a *app) updateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Crawl every vote newer than the checkpoint and advance it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = a.cfg.Output.CheckpointFile
			}
			cp, err := checkpoint.Load(path)
			if err != nil {
				return err
			}

			store, _, err := a.storage(cp.OutputPath)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signalContext()
			defer stop()

			next, err := updater.New(a.crawler(), store, nil).Update(ctx, cp)
			if err != nil {
				return err
			}
			return checkpoint.Save(path, next)
		},
	}
	cmd.Flags().StringVar(&path, "checkpoint", "", "checkpoint file (defaults to output.checkpoint_file)")
	return cmd
}

type saveFlags struct {
	save bool
	dir  string
}

func (s *saveFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.save, "save", false, "save a CSV copy under --data")
	cmd.Flags().StringVar(&s.dir, "data", "data", "data directory")
}

func (a *app) sessionsCmd() *cobra.Command {
	var sf saveFlags
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the sessions in the vote catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			refs, err := a.crawler().ListSessions(ctx)
			if err != nil {
				return err
			}
			if sf.save {
				files, err := storage.NewCSVStorage(sf.dir)
				if err != nil {
					return err
				}
				if _, err := files.SaveSessions(refs); err != nil {
					return err
				}
			}
			return printRows(cmd, votes.SessionColumns, refs)
		},
	}
	sf.register(cmd)
	return cmd
}

type sessionFlags struct {
	congress int
	session  int
}

func (s *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&s.congress, "congress", 0, "congress number, e.g. 116")
	cmd.Flags().IntVar(&s.session, "session", 0, "session number, 1 or 2")
	cmd.MarkFlagRequired("congress")
	cmd.MarkFlagRequired("session")
}

func (s *sessionFlags) validate() error {
	if s.congress <= 0 || s.session <= 0 {
		return fmt.Errorf("congress and session must be positive")
	}
	return nil
}

func (a *app) indexCmd() *cobra.Command {
	var (
		sf saveFlags
		ss sessionFlags
	)
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Show the vote index of one session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ss.validate(); err != nil {
				return err
			}
			ctx, stop := signalContext()
			defer stop()

			c := a.crawler()
			idx, err := c.VoteIndex(ctx, ss.congress, ss.session)
			if err != nil {
				return err
			}
			if sf.save {
				store, _, err := a.storage(sf.dir)
				if err != nil {
					return err
				}
				defer store.Close()
				ref := idx.Ref(c.Resolver().VoteIndexURL(ss.congress, ss.session))
				if err := store.SaveVoteIndex(ctx, ref, idx.Votes); err != nil {
					return err
				}
			}
			return printRows(cmd, votes.SummaryColumns, idx.Votes)
		},
	}
	sf.register(cmd)
	ss.register(cmd)
	return cmd
}

func (a *app) voteCmd() *cobra.Command {
	var (
		sf         saveFlags
		ss         sessionFlags
		voteNumber int
	)
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Show how each senator voted on one roll call",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ss.validate(); err != nil {
				return err
			}
			if voteNumber <= 0 {
				return fmt.Errorf("vote must be positive")
			}
			ctx, stop := signalContext()
			defer stop()

			c := a.crawler()
			records, err := c.VoteDetail(ctx, ss.congress, ss.session, voteNumber)
			if err != nil {
				return err
			}
			if sf.save {
				idx, err := c.VoteIndex(ctx, ss.congress, ss.session)
				if err != nil {
					return err
				}
				summary, ok := idx.Find(voteNumber)
				if !ok {
					return fmt.Errorf("vote %d not found in the %d-%d index", voteNumber, ss.congress, ss.session)
				}

				store, _, err := a.storage(sf.dir)
				if err != nil {
					return err
				}
				defer store.Close()
				ref := idx.Ref(c.Resolver().VoteIndexURL(ss.congress, ss.session))
				if err := storage.SaveVote(ctx, store, ref, summary, records); err != nil {
					return err
				}
			}
			return printRows(cmd, votes.RecordColumns, records)
		},
	}
	sf.register(cmd)
	ss.register(cmd)
	cmd.Flags().IntVar(&voteNumber, "vote", 0, "roll call vote number")
	cmd.MarkFlagRequired("vote")
	return cmd
}

func (a *app) batchCmd() *cobra.Command {
	var (
		sf     saveFlags
		ss     sessionFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Crawl every vote of one session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ss.validate(); err != nil {
				return err
			}
			if format != "concat" && format != "dict" {
				return fmt.Errorf(`valid formats are "dict" and "concat", got %q`, format)
			}
			ctx, stop := signalContext()
			defer stop()

			res, err := a.crawler().CrawlSession(ctx, ss.congress, ss.session, time.Time{})
			if err != nil {
				return err
			}
			if sf.save {
				store, files, err := a.storage(sf.dir)
				if err != nil {
					return err
				}
				defer store.Close()
				if err := storage.SaveSession(ctx, store, res); err != nil {
					return err
				}
				if _, err := files.SaveBatch(res); err != nil {
					return err
				}
			}

			if format == "concat" {
				return printRows(cmd, votes.BatchColumns, res.Records())
			}

			byNumber, err := votes.IndexByNumber(res.Votes)
			if err != nil {
				return err
			}
			numbers := make([]int, 0, len(byNumber))
			for n := range byNumber {
				numbers = append(numbers, n)
			}
			sort.Ints(numbers)
			for _, n := range numbers {
				fmt.Fprintf(cmd.OutOrStdout(), "# vote %d\n", n)
				if err := printRows(cmd, votes.RecordColumns, byNumber[n].Records); err != nil {
					return err
				}
			}
			return nil
		},
	}
	sf.register(cmd)
	ss.register(cmd)
	cmd.Flags().StringVar(&format, "format", "concat", `output format: "concat" or "dict"`)
	return cmd
}

type row interface {
	Row() []string
}

func printRows[T row](cmd *cobra.Command, header []string, items []T) error {
	w := csv.NewWriter(cmd.OutOrStdout())
	if err := w.Write(header); err != nil {
		return err
	}
	for _, it := range items {
		if err := w.Write(it.Row()); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

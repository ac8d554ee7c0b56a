package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/chmdznr/nexus-npm-sync/internal/config"
	"github.com/chmdznr/nexus-npm-sync/internal/db"
	"github.com/chmdznr/nexus-npm-sync/internal/state"
	"github.com/chmdznr/nexus-npm-sync/internal/sync"
	"github.com/chmdznr/nexus-npm-sync/pkg/utils"
	"github.com/chmdznr/nexus-npm-sync/pkg/version"
)

const (
	defaultConfigPath  = "./nexus_sync_config.json"
	defaultStatePath   = "./nexus_sync_state.json"
	defaultHistoryPath = "./nexus_sync_history.db"
	defaultScratchDir  = "./downloaded_assets"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "config",
		Usage: "Path to the sync configuration file",
		Value: defaultConfigPath,
	}
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"v"},
		Usage:   "print the version",
	}

	app := &cli.App{
		Name:                 "nxsync",
		Usage:                "Incremental npm package synchronization between Nexus repositories",
		Version:              version.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:  "version",
				Usage: "Print detailed version information",
				Action: func(c *cli.Context) error {
					fmt.Printf("Version:    %s\n", version.Version)
					fmt.Printf("Git commit: %s\n", version.GitCommit)
					fmt.Printf("Built:      %s\n", version.BuildTime)
					return nil
				},
			},
			{
				Name:   "init",
				Usage:  "Write a configuration template to fill in",
				Flags:  []cli.Flag{configFlag()},
				Action: initConfig,
			},
			{
				Name:  "sync",
				Usage: "Run one synchronization pass",
				Flags: []cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:  "state",
						Usage: "Path to the sync state file",
						Value: defaultStatePath,
					},
					&cli.StringFlag{
						Name:  "history-db",
						Usage: "Path to the run-history database",
						Value: defaultHistoryPath,
					},
					&cli.StringFlag{
						Name:  "scratch-dir",
						Usage: "Directory for temporarily downloaded assets",
						Value: defaultScratchDir,
					},
					&cli.BoolFlag{
						Name:  "debug",
						Usage: "Enable debug logging",
					},
				},
				Action: runSync,
			},
			{
				Name:  "status",
				Usage: "Show the sync state and recent runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "state",
						Usage: "Path to the sync state file",
						Value: defaultStatePath,
					},
					&cli.StringFlag{
						Name:  "history-db",
						Usage: "Path to the run-history database",
						Value: defaultHistoryPath,
					},
					&cli.IntFlag{
						Name:  "runs",
						Usage: "Number of recent runs to show",
						Value: 5,
					},
				},
				Action: showStatus,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

// initConfig writes the configuration template for the operator to fill in.
// It refuses to overwrite an existing file.
func initConfig(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}
	if err := config.WriteTemplate(path); err != nil {
		return err
	}
	fmt.Printf("Configuration template written to %s\n", path)
	return nil
}

// runSync executes one synchronization pass.
//
// The first invocation without a configuration file writes a template and
// exits so the operator can fill in endpoints and credentials. Subsequent
// invocations sync everything modified since the last effective run, or
// everything when no state exists yet.
func runSync(c *cli.Context) error {
	if c.Bool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.Info("Starting npm package synchronization...")

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		if errors.Is(err, config.ErrTemplateCreated) {
			return cli.Exit("Fill in the generated configuration file and run sync again", 1)
		}
		return err
	}

	syncer, err := sync.New(cfg, sync.Options{
		StatePath:   c.String("state"),
		HistoryPath: c.String("history-db"),
		ScratchDir:  c.String("scratch-dir"),
	})
	if err != nil {
		return err
	}
	defer syncer.Close()

	stats, err := syncer.Run(c.Context)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Sync completed: %d succeeded, %d failed, %d skipped\n",
		stats.Succeeded, stats.Failed, stats.Skipped)
	return nil
}

// showStatus prints the persisted sync state and the most recent journal
// entries.
func showStatus(c *cli.Context) error {
	logger := logrus.NewEntry(logrus.StandardLogger())
	st := state.NewStore(c.String("state"), logger).Load()
	if st.LastSyncDate == "" {
		fmt.Println("Last sync: never (next run will be a full sync)")
	} else {
		fmt.Printf("Last sync: %s\n", st.LastSyncDate)
		fmt.Printf("Assets synced in last run: %d\n", st.TotalSynced)
	}

	history, err := db.Open(c.String("history-db"))
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}
	defer history.Close()

	totals, err := history.Totals()
	if err != nil {
		return err
	}
	fmt.Printf("Recorded runs: %d (succeeded %d / failed %d / skipped %d)\n",
		totals.Runs, totals.Succeeded, totals.Failed, totals.Skipped)

	runs, err := history.RecentRuns(c.Int("runs"))
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("- %s  %-11s %-6s synced=%d failed=%d skipped=%d (%s)\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Mode,
			run.RepoType,
			run.Succeeded,
			run.Failed,
			run.Skipped,
			utils.FormatDuration(run.FinishedAt.Sub(run.StartedAt)),
		)
	}
	return nil
}

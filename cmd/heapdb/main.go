// Command heapdb runs the interactive SQL shell against a database
// environment directory.
//
//	heapdb [flags] <dbenvpath>
//
// Every file of the environment (tables, indices and the catalog) lives
// inside that directory. The shell reads one line at a time; each
// ';'-separated statement is executed and its result printed. An empty
// line continues, "quit" exits.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/tuannm99/heapdb/internal"
	"github.com/tuannm99/heapdb/internal/catalog"
	"github.com/tuannm99/heapdb/internal/sql/executor"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "heapdb [dbenvpath]",
	Short: "heapdb is a minimal SQL engine over slotted-page heap storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg.Logging.Level)

		dir, err := homedir.Expand(args[0])
		if err != nil {
			return err
		}
		if cfg.Storage.Workdir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Storage.Workdir, dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}

		cat, err := catalog.Open(dir)
		if err != nil {
			return err
		}
		err = repl(cat, cfg)
		return multierr.Append(err, cat.Close())
	},
	SilenceUsage: true,
}

func loadConfig() (*internal.HeapDbConfig, error) {
	if cfgFile == "" {
		return internal.DefaultConfig(), nil
	}
	return internal.LoadConfig(cfgFile)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// repl is the interactive loop: read a line, execute its statements,
// print every result. Statement errors are printed and the loop goes on.
func repl(cat *catalog.Catalog, cfg *internal.HeapDbConfig) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      cfg.Repl.Prompt,
		HistoryFile: cfg.Repl.History,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rl.Close() }()

	exec := executor.New(cat)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" {
			return nil
		}

		results, err := exec.ExecLine(line)
		for _, res := range results {
			fmt.Println(res)
		}
		if err != nil {
			fmt.Println("Error:", err)
		}
	}
}

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml)")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

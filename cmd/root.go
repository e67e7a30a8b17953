// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/board"
	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
	"github.com/nibzard/tasklist/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Terminal streams. Tests replace them.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// ls is the default command.
	subcommand := "ls"
	remainingArgs := fs.Args()
	globalArgs := args[:len(args)-len(remainingArgs)]
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "ls", "list":
		return lsCommand(ctx, cfg, remainingArgs)
	case "add":
		return addCommand(ctx, cfg, remainingArgs)
	case "done":
		return doneCommand(ctx, cfg, remainingArgs)
	case "edit":
		return editCommand(ctx, cfg, remainingArgs)
	case "prio", "priority":
		return prioCommand(ctx, cfg, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cfg, remainingArgs)
	case "sort":
		return sortCommand(ctx, cfg, remainingArgs)
	case "cat", "category", "categories":
		return catCommand(ctx, cfg, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, remainingArgs)
	case "doctor":
		return doctorCommand(ctx, cfg, remainingArgs)
	case "log":
		return logCommand(ctx, cfg, remainingArgs)
	case "config":
		return configCommand(globalArgs, remainingArgs)
	case "version":
		return versionCommand()
	case "help":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// session is an opened board and the store behind it.
type session struct {
	store storage.Store
	board *board.Board
}

func (s *session) Close() error {
	return s.store.Close()
}

// openBoard opens the configured store and loads a board from it.
// Journal problems are logged and do not stop the command.
func openBoard(ctx context.Context, cfg *config.Config, confirm board.Confirmer, logger *log.Logger) (*session, error) {
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	opts := []board.Option{board.WithLogger(logger)}
	if cfg.Journal {
		journal, err := logging.OpenJournal(cfg.LogDir, cfg.ProjectRoot)
		if err != nil {
			logger.Warn("journal disabled", "err", err)
		} else {
			opts = append(opts, board.WithJournal(journal))
		}
	}

	b, err := board.New(ctx, store, confirm, opts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Debug("opened board", "storage", store)
	return &session{store: store, board: b}, nil
}

func newLogger(cfg *config.Config) *log.Logger {
	return logging.New(stderr, logging.OptionsFromConfig(cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller))
}

// confirmer returns the prompt used for destructive commands.
func confirmer(cfg *config.Config, assumeYes bool) board.Confirmer {
	if cfg.AssumeYes || assumeYes {
		return board.AutoConfirm
	}
	return ui.NewPromptConfirmer(stdin, stdout)
}

// parseNumber turns a 1-based number from the command line into an index.
func parseNumber(kind, arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s number %q", kind, arg)
	}
	return n - 1, nil
}

// userError rewrites index errors with 1-based numbers.
func userError(err error) error {
	var ie *todo.IndexError
	if errors.As(err, &ie) {
		if ie.Len == 0 {
			return fmt.Errorf("no %s %d: the list is empty", ie.Kind, ie.Index+1)
		}
		return fmt.Errorf("no %s %d: numbers go from 1 to %d", ie.Kind, ie.Index+1, ie.Len)
	}
	return err
}

// tuiCommand launches the full-screen board.
func tuiCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if !ui.IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	// The program owns the terminal, so nothing may log to it.
	confirm := ui.NewModalConfirmer()
	s, err := openBoard(ctx, cfg, confirm, logging.Discard())
	if err != nil {
		return err
	}
	defer s.Close()

	return ui.Run(ctx, s.board, confirm)
}

// logCommand tails the mutation journal of the current project.
func logCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist log", flag.ContinueOnError)
	fs.SetOutput(stderr)
	follow := fs.Bool("f", false, "Follow the journal (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the journal (like tail -f)")
	n := fs.Int("n", 20, "Number of entries to show (0 = all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := logging.JournalPath(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("finding journal: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "No journal entries yet.")
			return nil
		}
		return err
	}

	fmt.Fprintf(stdout, "Journal: %s\n", path)
	if *follow {
		fmt.Fprintln(stdout, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(stdout)

	return logging.TailLog(ctx, stdout, path, *n, *follow)
}

// configCommand shows the effective configuration and where each value
// came from, or prints an example file.
func configCommand(globalArgs, args []string) error {
	if len(args) > 0 {
		if args[0] != "example" || len(args) > 1 {
			return fmt.Errorf("usage: tasklist config [example]")
		}
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}

	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cws, err := config.LoadWithSources(fs, globalArgs)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Fprintln(stdout, "Config files:")
	if len(cws.Files) == 0 {
		fmt.Fprintln(stdout, "  (none)")
	}
	for _, f := range cws.Files {
		fmt.Fprintf(stdout, "  %s\n", f)
	}
	fmt.Fprintln(stdout)

	fields := cws.Fields()
	width := 0
	for _, field := range fields {
		width = max(width, len(field))
	}
	for _, field := range fields {
		fmt.Fprintf(stdout, "  %-*s = %-30s (%s)\n", width, field, configValue(cws.Config, field), cws.Sources[field])
	}
	return nil
}

func configValue(cfg *config.Config, field string) string {
	switch field {
	case "data_file":
		return cfg.DataFile
	case "schema_file":
		return cfg.SchemaFile
	case "log_dir":
		return cfg.LogDir
	case "storage":
		return cfg.Storage
	case "redis.url":
		return cfg.Redis.URL
	case "redis.addr":
		return cfg.Redis.Addr
	case "redis.password":
		if cfg.Redis.Password != "" {
			return "********"
		}
		return ""
	case "redis.db":
		return strconv.Itoa(cfg.Redis.DB)
	case "redis.namespace":
		return cfg.Redis.Namespace
	case "assume_yes":
		return strconv.FormatBool(cfg.AssumeYes)
	case "journal":
		return strconv.FormatBool(cfg.Journal)
	case "log_level":
		return cfg.LogLevel
	case "log_format":
		return cfg.LogFormat
	case "log_timestamps":
		return strconv.FormatBool(cfg.LogTimestamps)
	case "log_caller":
		return strconv.FormatBool(cfg.LogCaller)
	default:
		return ""
	}
}

func versionCommand() error {
	fmt.Fprintf(stdout, "tasklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Tasklist - tasks with priorities and categories")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  ls                 List tasks (default command)")
	fmt.Fprintln(w, "  add TITLE          Add a task")
	fmt.Fprintln(w, "  done N             Toggle task N between open and done")
	fmt.Fprintln(w, "  edit N             Change task N")
	fmt.Fprintln(w, "  prio N LEVEL       Set the priority of task N (High, Medium, Low)")
	fmt.Fprintln(w, "  rm N               Delete task N")
	fmt.Fprintln(w, "  sort               Sort tasks by priority")
	fmt.Fprintln(w, "  cat [ls]           List categories")
	fmt.Fprintln(w, "  cat add NAME       Add a category")
	fmt.Fprintln(w, "  cat rm N           Delete category N and uncategorize its tasks")
	fmt.Fprintln(w, "  tui                Launch terminal UI")
	fmt.Fprintln(w, "  doctor [file]      Check config and snapshot validity")
	fmt.Fprintln(w, "  log                Show the change journal")
	fmt.Fprintln(w, "  config [example]   Show effective config or an example file")
	fmt.Fprintln(w, "  version            Show version information")
	fmt.Fprintln(w, "  help               Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task and category numbers start at 1, as shown by ls and cat ls.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -title string     Show tasks whose title contains the text")
	fmt.Fprintln(w, "  -priority string  Show only tasks with this priority")
	fmt.Fprintln(w, "  -category string  Show only tasks in this category")
	fmt.Fprintln(w, "  -v                Show descriptions")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Add and Edit Options:")
	fmt.Fprintln(w, "  -title string     New title (edit only)")
	fmt.Fprintln(w, "  -d string         Description")
	fmt.Fprintln(w, "  -p string         Priority (High, Medium, Low)")
	fmt.Fprintln(w, "  -c string         Category")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rm Options (rm and cat rm):")
	fmt.Fprintln(w, "  -yes              Do not ask for confirmation")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options:")
	fmt.Fprintln(w, "  -fix              Clear category references to missing categories")
	fmt.Fprintln(w, "  -v                Show every task")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Log Options:")
	fmt.Fprintln(w, "  -f, -follow       Follow the journal (like tail -f)")
	fmt.Fprintln(w, "  -n int            Number of entries to show (0 = all, default 20)")
}

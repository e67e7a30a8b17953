package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/nibzard/tasklist/internal/board"
	"github.com/nibzard/tasklist/internal/config"
)

// catCommand dispatches the category subcommands.
func catCommand(ctx context.Context, cfg *config.Config, args []string) error {
	sub := "ls"
	if len(args) > 0 {
		sub, args = args[0], args[1:]
	}

	switch sub {
	case "ls", "list":
		if len(args) > 0 {
			return fmt.Errorf("unexpected arguments: %v", args)
		}
		return catListCommand(ctx, cfg)
	case "add":
		return catAddCommand(ctx, cfg, args)
	case "rm", "delete":
		return catRmCommand(ctx, cfg, args)
	default:
		return fmt.Errorf("unknown category command: %s (expected ls, add or rm)", sub)
	}
}

func catListCommand(ctx context.Context, cfg *config.Config) error {
	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	categories := s.board.Categories()
	if len(categories) == 0 {
		fmt.Fprintln(stdout, "No categories.")
		return nil
	}

	counts := make(map[string]int)
	for _, t := range s.board.Tasks() {
		if t.Category != "" {
			counts[t.Category]++
		}
	}
	for i, c := range categories {
		fmt.Fprintf(stdout, "%3d. %s (%d tasks)\n", i+1, c.Name, counts[c.Name])
	}
	return nil
}

func catAddCommand(ctx context.Context, cfg *config.Config, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("usage: tasklist cat add NAME")
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	exists := s.board.HasCategory(name)
	c, ok, err := s.board.AddCategory(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("category not added")
	}
	fmt.Fprintf(stdout, "Added category %d: %s\n", len(s.board.Categories()), c.Name)
	if exists {
		fmt.Fprintf(stderr, "Note: a category named %q already existed\n", c.Name)
	}
	return nil
}

func catRmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist cat rm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.BoolVar(yes, "y", false, "Do not ask for confirmation")

	var number string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		number, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if number == "" && fs.NArg() == 1 {
		number = fs.Arg(0)
	} else if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if number == "" {
		return fmt.Errorf("usage: tasklist cat rm [-yes] N")
	}
	i, err := parseNumber("category", number)
	if err != nil {
		return err
	}

	s, err := openBoard(ctx, cfg, confirmer(cfg, *yes), newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	removal, deleted, err := s.board.DeleteCategory(ctx, i)
	if err != nil {
		return userError(err)
	}
	if !deleted {
		fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	fmt.Fprintf(stdout, "Deleted category %d: %s (%d tasks uncategorized)\n", i+1, removal.Name, removal.Cleared)
	return nil
}

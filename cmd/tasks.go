package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/tasklist/internal/board"
	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/filter"
	"github.com/nibzard/tasklist/internal/todo"
)

// lsCommand lists tasks, optionally filtered.
func lsCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "Show tasks whose title contains the text")
	priority := fs.String("priority", "", "Show only tasks with this priority")
	category := fs.String("category", "", "Show only tasks in this category")
	verbose := fs.Bool("v", false, "Show descriptions")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	criteria := filter.Criteria{Title: *title, Category: *category}
	if *priority != "" {
		p, err := todo.ParsePriority(*priority)
		if err != nil {
			return err
		}
		criteria.Priority = p
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	tasks := s.board.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks.")
		return nil
	}

	indices := s.board.FilterIndices(criteria)
	if !criteria.IsZero() {
		fmt.Fprintf(stdout, "Showing %s (%d of %d)\n\n", criteria, len(indices), len(tasks))
	}
	if len(indices) == 0 {
		fmt.Fprintln(stdout, "No matching tasks.")
		return nil
	}
	for _, i := range indices {
		printTask(stdout, i, tasks[i], *verbose)
	}
	return nil
}

// addCommand appends a task.
func addCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist add", flag.ContinueOnError)
	fs.SetOutput(stderr)
	desc := fs.String("d", "", "Description")
	priority := fs.String("p", "", "Priority (High, Medium, Low)")
	category := fs.String("c", "", "Category")

	if err := fs.Parse(args); err != nil {
		return err
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return fmt.Errorf("usage: tasklist add [-d text] [-p priority] [-c category] TITLE")
	}
	p, err := todo.ParsePriority(*priority)
	if err != nil {
		return err
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if *category != "" && !s.board.HasCategory(*category) {
		return fmt.Errorf("unknown category %q (create it with: tasklist cat add %s)", *category, *category)
	}

	added, ok, err := s.board.AddTask(ctx, todo.Task{
		Title:       title,
		Description: *desc,
		Priority:    p,
		Category:    *category,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("task not added")
	}
	fmt.Fprintf(stdout, "Added task %d: %s\n", len(s.board.Tasks()), added.Title)
	return nil
}

// doneCommand toggles a task between open and done.
func doneCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tasklist done N")
	}
	i, err := parseNumber("task", args[0])
	if err != nil {
		return err
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.board.ToggleDone(ctx, i)
	if err != nil {
		return userError(err)
	}
	state := "open"
	if t.Done {
		state = "done"
	}
	fmt.Fprintf(stdout, "Task %d is %s: %s\n", i+1, state, t.Title)
	return nil
}

// editCommand changes the fields given as flags and keeps the rest.
func editCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist edit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	title := fs.String("title", "", "New title")
	desc := fs.String("d", "", "Description")
	priority := fs.String("p", "", "Priority (High, Medium, Low)")
	category := fs.String("c", "", "Category (empty to clear)")

	// The task number may come before or after the flags.
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
		return fmt.Errorf("usage: tasklist edit N [-title text] [-d text] [-p priority] [-c category]")
	}
	i, err := parseNumber("task", number)
	if err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		return fmt.Errorf("nothing to change: give at least one of -title, -d, -p, -c")
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.board.Task(i)
	if err != nil {
		return userError(err)
	}
	if set["title"] {
		t.Title = *title
	}
	if set["d"] {
		t.Description = *desc
	}
	if set["p"] {
		if strings.TrimSpace(*priority) == "" {
			return fmt.Errorf("priority must not be empty (expected High, Medium or Low)")
		}
		p, err := todo.ParsePriority(*priority)
		if err != nil {
			return err
		}
		t.Priority = p
	}
	if set["c"] {
		t.Category = *category
		if t.Category != "" && !s.board.HasCategory(t.Category) {
			return fmt.Errorf("unknown category %q (create it with: tasklist cat add %s)", t.Category, t.Category)
		}
	}

	ok, err := s.board.EditTask(ctx, i, t)
	if err != nil {
		return userError(err)
	}
	if !ok {
		return fmt.Errorf("task %d not changed: title must not be empty", i+1)
	}
	fmt.Fprintf(stdout, "Updated task %d\n", i+1)
	return nil
}

// prioCommand sets the priority of one task.
func prioCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
		return fmt.Errorf("usage: tasklist prio N LEVEL")
	}
	i, err := parseNumber("task", args[0])
	if err != nil {
		return err
	}
	p, err := todo.ParsePriority(args[1])
	if err != nil {
		return err
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.board.SetPriority(ctx, i, p); err != nil {
		return userError(err)
	}
	fmt.Fprintf(stdout, "Task %d priority: %s\n", i+1, p)
	return nil
}

// rmCommand deletes a task after confirmation.
func rmCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist rm", flag.ContinueOnError)
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
		return fmt.Errorf("usage: tasklist rm [-yes] N")
	}
	i, err := parseNumber("task", number)
	if err != nil {
		return err
	}

	s, err := openBoard(ctx, cfg, confirmer(cfg, *yes), newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	t, err := s.board.Task(i)
	if err != nil {
		return userError(err)
	}
	deleted, err := s.board.DeleteTask(ctx, i)
	if err != nil {
		return userError(err)
	}
	if !deleted {
		fmt.Fprintln(stdout, "Cancelled.")
		return nil
	}
	fmt.Fprintf(stdout, "Deleted task %d: %s\n", i+1, t.Title)
	return nil
}

// sortCommand orders tasks by priority.
func sortCommand(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	s, err := openBoard(ctx, cfg, board.AutoConfirm, newLogger(cfg))
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.board.SortByPriority(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Sorted %d tasks by priority\n", len(s.board.Tasks()))
	return nil
}

func printTask(w io.Writer, i int, t todo.Task, verbose bool) {
	box := "[ ]"
	if t.Done {
		box = "[x]"
	}
	line := fmt.Sprintf("%3d. %s %-6s %s", i+1, box, t.Priority, t.Title)
	if t.Category != "" {
		line += "  @" + t.Category
	}
	fmt.Fprintln(w, line)
	if verbose && t.Description != "" {
		for _, l := range strings.Split(t.Description, "\n") {
			fmt.Fprintf(w, "          %s\n", l)
		}
	}
}

package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

// doctorCommand checks the configuration and validates the stored snapshot.
// With -fix it clears category references to missing categories.
func doctorCommand(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fix := fs.Bool("fix", false, "Clear category references to missing categories")
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}
	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}

	fmt.Fprintln(stdout, "Tasklist Doctor")
	fmt.Fprintln(stdout, "===============")
	fmt.Fprintln(stdout)

	allOK := true

	fmt.Fprintln(stdout, "Config:")
	fmt.Fprintf(stdout, "  Storage: %s\n", cfg.Storage)
	if cfg.SchemaFile != "" {
		fmt.Fprintf(stdout, "  Schema: %s\n", cfg.SchemaFile)
	} else {
		fmt.Fprintln(stdout, "  Schema: (built-in)")
	}
	fmt.Fprintln(stdout)

	// An explicit file is always checked as a file, whatever the backend.
	var (
		snapshot *todo.File
		save     func(*todo.File) error
	)
	if len(remaining) == 1 || cfg.Storage == config.StorageFile {
		path := cfg.DataFile
		if len(remaining) == 1 {
			path = remaining[0]
			if !filepath.IsAbs(path) {
				path = filepath.Join(cfg.ProjectRoot, path)
			}
		}
		fmt.Fprintf(stdout, "Snapshot file: %s\n", path)
		f, ok := loadSnapshotFile(path)
		if !ok {
			allOK = false
		}
		snapshot = f
		save = func(f *todo.File) error { return f.Save(path) }
	} else {
		fmt.Fprintf(stdout, "Snapshot (%s):\n", cfg.Storage)
		store, err := storage.Open(ctx, cfg)
		if err != nil {
			fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
			allOK = false
		} else {
			defer store.Close()
			tasks, categories, err := store.Load(ctx)
			if err != nil {
				fmt.Fprintf(stdout, "  ❌ Load error: %v\n", err)
				allOK = false
			} else {
				fmt.Fprintf(stdout, "  ✅ Connected (%s)\n", store)
				snapshot = todo.NewFile(tasks, categories)
				save = func(f *todo.File) error { return store.Save(ctx, f.Tasks, f.Categories) }
			}
		}
	}

	if snapshot != nil {
		if !checkSnapshot(snapshot, cfg.SchemaFile, *verbose) {
			if *fix {
				if repaired := repairSnapshot(snapshot, save); repaired {
					allOK = checkSnapshot(snapshot, cfg.SchemaFile, false) && allOK
				} else {
					allOK = false
				}
			} else {
				allOK = false
			}
		}
	}
	fmt.Fprintln(stdout)

	// Check journal
	if cfg.Journal {
		path, err := logging.JournalPath(cfg.LogDir, cfg.ProjectRoot)
		if err != nil {
			fmt.Fprintf(stdout, "Journal: ❌ %v\n", err)
			allOK = false
		} else {
			fmt.Fprintf(stdout, "Journal: %s\n", path)
			if _, err := os.Stat(path); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(stdout, "  ⚠️  Not found (created on first change)")
				} else {
					fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
					allOK = false
				}
			} else {
				fmt.Fprintln(stdout, "  ✅ OK")
			}
		}
	} else {
		fmt.Fprintln(stdout, "Journal: disabled")
	}
	fmt.Fprintln(stdout)

	if allOK {
		fmt.Fprintln(stdout, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(stdout, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// loadSnapshotFile loads path for validation. A missing file is fine and
// yields nil; ok is false only for real problems.
func loadSnapshotFile(path string) (*todo.File, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(stdout, "  ⚠️  Not found (created on first change)")
			return nil, true
		}
		fmt.Fprintf(stdout, "  ❌ Error: %v\n", err)
		return nil, false
	}
	if info.IsDir() {
		fmt.Fprintln(stdout, "  ❌ Error: path is a directory")
		return nil, false
	}

	f, err := todo.Load(path)
	if err != nil {
		fmt.Fprintf(stdout, "  ❌ Load error: %v\n", err)
		return nil, false
	}
	fmt.Fprintln(stdout, "  ✅ Readable")
	return f, true
}

// checkSnapshot prints the validation result and reports whether f is valid.
func checkSnapshot(f *todo.File, schemaPath string, verbose bool) bool {
	result := f.Validate(todo.ValidationOptions{SchemaPath: schemaPath})
	for _, w := range result.Warnings {
		fmt.Fprintf(stdout, "  ⚠️  %s\n", w)
	}
	if result.Valid {
		fmt.Fprintf(stdout, "  ✅ Valid (%d tasks, %d categories)\n", len(f.Tasks), len(f.Categories))
	} else {
		fmt.Fprintln(stdout, "  ❌ Validation failed:")
		for _, e := range result.Errors {
			fmt.Fprintf(stdout, "     - %v\n", e)
		}
	}
	if verbose {
		for i, t := range f.Tasks {
			cat := ""
			if t.Category != "" {
				cat = "  @" + t.Category
			}
			fmt.Fprintf(stdout, "    %3d. %s %s%s\n", i+1, t.Priority, t.Title, cat)
		}
		names := make([]string, len(f.Categories))
		for i, c := range f.Categories {
			names[i] = c.Name
		}
		fmt.Fprintf(stdout, "    Categories: %s\n", strings.Join(names, ", "))
	}
	return result.Valid
}

// repairSnapshot clears dangling references and saves the result.
func repairSnapshot(f *todo.File, save func(*todo.File) error) bool {
	fixed := f.Repair()
	if fixed == 0 {
		fmt.Fprintln(stdout, "  ⚠️  Nothing doctor can repair automatically")
		return false
	}
	if err := save(f); err != nil {
		fmt.Fprintf(stdout, "  ❌ Saving repaired snapshot: %v\n", err)
		return false
	}
	fmt.Fprintf(stdout, "  🔧 Cleared %d dangling category reference(s)\n", fixed)
	return true
}

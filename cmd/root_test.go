package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/nibzard/tasklist/internal/todo"
)

// isolate points HOME, the config directories and the working directory at
// fresh temp dirs and clears TASKLIST_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, env := range os.Environ() {
		if name, _, ok := strings.Cut(env, "="); ok && strings.HasPrefix(name, "TASKLIST_") {
			t.Setenv(name, "")
		}
	}
	work := t.TempDir()
	t.Chdir(work)
	return work
}

// run executes the CLI with input as stdin and returns everything written.
func run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	oldIn, oldOut, oldErr := stdin, stdout, stderr
	stdin, stdout, stderr = strings.NewReader(input), &out, &out
	defer func() { stdin, stdout, stderr = oldIn, oldOut, oldErr }()

	err := Run(context.Background(), args)
	return out.String(), err
}

// mustRun runs the CLI and fails the test on error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	if err != nil {
		t.Fatalf("tasklist %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func loadSnapshot(t *testing.T, path string) *todo.File {
	t.Helper()
	f, err := todo.Load(path)
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return f
}

func TestRun(t *testing.T) {
	isolate(t)

	t.Run("shows help with -h flag", func(t *testing.T) {
		out := mustRun(t, "-h")
		if !strings.Contains(out, "Usage:") || !strings.Contains(out, "cat rm N") {
			t.Errorf("unexpected help output:\n%s", out)
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		if out := mustRun(t, "help"); !strings.Contains(out, "Commands:") {
			t.Errorf("unexpected help output:\n%s", out)
		}
	})

	t.Run("shows version", func(t *testing.T) {
		for _, args := range [][]string{{"-v"}, {"-version"}, {"version"}} {
			if out := mustRun(t, args...); !strings.Contains(out, "tasklist version dev") {
				t.Errorf("%v: got %q", args, out)
			}
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		_, err := run(t, "", "frobnicate")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected unknown command error, got %v", err)
		}
	})

	t.Run("ls on an empty board", func(t *testing.T) {
		if out := mustRun(t); !strings.Contains(out, "No tasks.") {
			t.Errorf("got %q", out)
		}
	})

	t.Run("invalid storage is a config error", func(t *testing.T) {
		if _, err := run(t, "", "-storage", "sqlite", "ls"); err == nil {
			t.Error("expected error for invalid storage")
		}
	})
}

func TestTaskWorkflow(t *testing.T) {
	work := isolate(t)
	dataFile := filepath.Join(work, "tasks.json")

	mustRun(t, "cat", "add", "Arbeit")
	mustRun(t, "cat", "add", "Privat")
	if out := mustRun(t, "add", "-p", "high", "-c", "Arbeit", "-d", "weekly sync", "Meeting"); !strings.Contains(out, "Added task 1: Meeting") {
		t.Errorf("add output: %q", out)
	}
	mustRun(t, "add", "-c", "Privat", "Einkaufen")
	mustRun(t, "add", "-p", "l", "Lesen")

	out := mustRun(t, "ls", "-v")
	for _, want := range []string{"1. [ ] High   Meeting  @Arbeit", "weekly sync", "2. [ ] Medium Einkaufen  @Privat", "3. [ ] Low    Lesen"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls missing %q:\n%s", want, out)
		}
	}

	if out := mustRun(t, "done", "1"); !strings.Contains(out, "Task 1 is done: Meeting") {
		t.Errorf("done output: %q", out)
	}
	mustRun(t, "edit", "3", "-title", "Buch lesen", "-c", "Privat")
	mustRun(t, "prio", "2", "low")
	mustRun(t, "sort")

	f := loadSnapshot(t, dataFile)
	var got []string
	for _, task := range f.Tasks {
		got = append(got, task.Title+"/"+string(task.Priority)+"/"+task.Category)
	}
	want := []string{"Meeting/High/Arbeit", "Einkaufen/Low/Privat", "Buch lesen/Low/Privat"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("snapshot tasks: got %v, want %v", got, want)
	}
	if !f.Tasks[0].Done || f.Tasks[0].Description != "weekly sync" {
		t.Errorf("Meeting: got %+v", f.Tasks[0])
	}

	out = mustRun(t, "ls", "-priority", "low", "-title", "BUCH")
	if !strings.Contains(out, "Buch lesen") || strings.Contains(out, "Einkaufen") {
		t.Errorf("filtered ls:\n%s", out)
	}
	if !strings.Contains(out, "(1 of 3)") {
		t.Errorf("filtered ls should show counts:\n%s", out)
	}

	out = mustRun(t, "cat")
	if !strings.Contains(out, "1. Arbeit (1 tasks)") || !strings.Contains(out, "2. Privat (2 tasks)") {
		t.Errorf("cat ls:\n%s", out)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing title", []string{"add"}, "usage"},
		{"unknown category", []string{"add", "-c", "Nope", "x"}, `unknown category "Nope"`},
		{"bad priority", []string{"add", "-p", "urgent", "x"}, "invalid priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if out := mustRun(t, "ls"); !strings.Contains(out, "No tasks.") {
		t.Errorf("nothing should have been added:\n%s", out)
	}
}

func TestNumbersAreOneBased(t *testing.T) {
	isolate(t)
	mustRun(t, "add", "only")

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"done", "0"}, `invalid task number "0"`},
		{[]string{"done", "x"}, `invalid task number "x"`},
		{[]string{"done", "2"}, "no task 2: numbers go from 1 to 1"},
		{[]string{"rm", "-yes", "5"}, "no task 5"},
		{[]string{"cat", "rm", "-yes", "1"}, "no category 1: the list is empty"},
		{[]string{"prio", "3", "high"}, "no task 3"},
		{[]string{"edit", "4", "-title", "x"}, "no task 4"},
	}
	for _, tt := range tests {
		_, err := run(t, "", tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%v: expected error containing %q, got %v", tt.args, tt.want, err)
		}
	}
}

func TestEditValidation(t *testing.T) {
	isolate(t)
	mustRun(t, "add", "task")

	if _, err := run(t, "", "edit", "1"); err == nil || !strings.Contains(err.Error(), "nothing to change") {
		t.Errorf("edit without flags: got %v", err)
	}
	if _, err := run(t, "", "edit", "1", "-title", " "); err == nil || !strings.Contains(err.Error(), "not changed") {
		t.Errorf("blank title: got %v", err)
	}
	if _, err := run(t, "", "edit", "-c", "Ghost", "1"); err == nil || !strings.Contains(err.Error(), "unknown category") {
		t.Errorf("unknown category: got %v", err)
	}

	mustRun(t, "prio", "1", "high")
	if _, err := run(t, "", "edit", "1", "-p", ""); err == nil || !strings.Contains(err.Error(), "priority must not be empty") {
		t.Errorf("empty priority: got %v", err)
	}
	if out := mustRun(t, "ls"); !strings.Contains(out, "High") {
		t.Errorf("empty -p changed the priority:\n%s", out)
	}
}

func TestRmConfirmation(t *testing.T) {
	work := isolate(t)
	dataFile := filepath.Join(work, "tasks.json")
	mustRun(t, "add", "a")
	mustRun(t, "add", "b")
	mustRun(t, "add", "c")

	out, err := run(t, "n\n", "rm", "2")
	if err != nil {
		t.Fatalf("rm declined: %v", err)
	}
	if !strings.Contains(out, `Delete task "b"? [y/N]`) || !strings.Contains(out, "Cancelled.") {
		t.Errorf("declined rm output:\n%s", out)
	}
	if n := len(loadSnapshot(t, dataFile).Tasks); n != 3 {
		t.Errorf("declined rm removed a task: %d left", n)
	}

	// End of input counts as no.
	if out, _ := run(t, "", "rm", "2"); !strings.Contains(out, "Cancelled.") {
		t.Errorf("rm with no answer:\n%s", out)
	}

	out, err = run(t, "y\n", "rm", "2")
	if err != nil || !strings.Contains(out, "Deleted task 2: b") {
		t.Errorf("confirmed rm: %v\n%s", err, out)
	}

	if out := mustRun(t, "rm", "1", "-yes"); strings.Contains(out, "[y/N]") {
		t.Errorf("-yes should not prompt:\n%s", out)
	}
	if out := mustRun(t, "-yes", "rm", "1"); strings.Contains(out, "[y/N]") {
		t.Errorf("global -yes should not prompt:\n%s", out)
	}
	if n := len(loadSnapshot(t, dataFile).Tasks); n != 0 {
		t.Errorf("expected no tasks left, got %d", n)
	}
}

func TestCategoryRemovalUncategorizesTasks(t *testing.T) {
	work := isolate(t)
	mustRun(t, "cat", "add", "Arbeit")
	mustRun(t, "cat", "add", "Privat")
	mustRun(t, "cat", "add", "Schule")
	mustRun(t, "add", "-c", "Arbeit", "Meeting")
	mustRun(t, "add", "-c", "Arbeit", "Email")
	mustRun(t, "add", "-c", "Privat", "Einkaufen")

	out, err := run(t, "y\n", "cat", "rm", "1")
	if err != nil {
		t.Fatalf("cat rm: %v", err)
	}
	if !strings.Contains(out, "Deleted category 1: Arbeit (2 tasks uncategorized)") {
		t.Errorf("cat rm output:\n%s", out)
	}

	f := loadSnapshot(t, filepath.Join(work, "tasks.json"))
	if len(f.Categories) != 2 || f.Categories[0].Name != "Privat" || f.Categories[1].Name != "Schule" {
		t.Errorf("categories: got %+v", f.Categories)
	}
	if f.Tasks[0].Category != "" || f.Tasks[1].Category != "" || f.Tasks[2].Category != "Privat" {
		t.Errorf("tasks: got %+v", f.Tasks)
	}
}

func TestDoctor(t *testing.T) {
	work := isolate(t)
	dataFile := filepath.Join(work, "tasks.json")

	t.Run("missing snapshot is fine", func(t *testing.T) {
		out := mustRun(t, "doctor")
		if !strings.Contains(out, "Not found") || !strings.Contains(out, "All checks passed") {
			t.Errorf("doctor output:\n%s", out)
		}
	})

	t.Run("valid snapshot", func(t *testing.T) {
		mustRun(t, "cat", "add", "Work")
		mustRun(t, "add", "-c", "Work", "task")
		out := mustRun(t, "doctor", "-v")
		if !strings.Contains(out, "Valid (1 tasks, 1 categories)") || !strings.Contains(out, "Categories: Work") {
			t.Errorf("doctor output:\n%s", out)
		}
	})

	t.Run("dangling category reference", func(t *testing.T) {
		f := todo.NewFile([]todo.Task{{Title: "orphan", Priority: todo.PriorityLow, Category: "Gone"}}, nil)
		if err := f.Save(dataFile); err != nil {
			t.Fatal(err)
		}

		out, err := run(t, "", "doctor")
		if err == nil {
			t.Fatalf("doctor should fail:\n%s", out)
		}
		if !strings.Contains(out, "Gone") {
			t.Errorf("doctor should name the missing category:\n%s", out)
		}

		out = mustRun(t, "doctor", "-fix")
		if !strings.Contains(out, "Cleared 1 dangling category reference(s)") {
			t.Errorf("doctor -fix output:\n%s", out)
		}
		if got := loadSnapshot(t, dataFile).Tasks[0].Category; got != "" {
			t.Errorf("category after repair: %q", got)
		}
	})

	t.Run("explicit file argument", func(t *testing.T) {
		other := filepath.Join(work, "other.yaml")
		if err := os.WriteFile(other, []byte("schema_version: 1\ntasks: []\ncategories: []\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if out := mustRun(t, "doctor", "other.yaml"); !strings.Contains(out, other) {
			t.Errorf("doctor should check %s:\n%s", other, out)
		}
	})

	t.Run("unreadable snapshot", func(t *testing.T) {
		if err := os.WriteFile(dataFile, []byte("{broken"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := run(t, "", "doctor"); err == nil {
			t.Error("doctor should fail on a corrupt file")
		}
	})
}

func TestJournalLog(t *testing.T) {
	isolate(t)

	if out := mustRun(t, "log"); !strings.Contains(out, "No journal entries yet.") {
		t.Errorf("log before any change:\n%s", out)
	}

	mustRun(t, "cat", "add", "Work")
	mustRun(t, "add", "-c", "Work", "Meeting")
	mustRun(t, "-yes", "cat", "rm", "1")

	out := mustRun(t, "log", "-n", "2")
	if strings.Contains(out, `"op":"cat-add"`) {
		t.Errorf("-n 2 should only show the last two entries:\n%s", out)
	}
	if !strings.Contains(out, `"op":"add"`) || !strings.Contains(out, `"op":"cat-rm"`) || !strings.Contains(out, `"cleared":1`) {
		t.Errorf("log output:\n%s", out)
	}

	mustRun(t, "-journal=false", "add", "quiet")
	if out := mustRun(t, "log", "-n", "0"); strings.Contains(out, "quiet") {
		t.Errorf("-journal=false should not record:\n%s", out)
	}
}

func TestConfigCommand(t *testing.T) {
	work := isolate(t)

	out := mustRun(t, "config")
	if !strings.Contains(out, "(none)") || !strings.Contains(out, "storage") || !strings.Contains(out, "(default)") {
		t.Errorf("config output:\n%s", out)
	}

	project := "storage = \"memory\"\n\n[redis]\npassword = \"secret\"\n"
	if err := os.WriteFile(filepath.Join(work, "tasklist.toml"), []byte(project), 0644); err != nil {
		t.Fatal(err)
	}
	out = mustRun(t, "-log-level", "debug", "config")
	for _, want := range []string{"tasklist.toml", "memory", "(project file)", "(flag)", "********"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "secret") {
		t.Errorf("password should be masked:\n%s", out)
	}

	if out := mustRun(t, "config", "example"); !strings.Contains(out, "[redis]") {
		t.Errorf("example config:\n%s", out)
	}
	if _, err := run(t, "", "config", "bogus"); err == nil {
		t.Error("expected usage error")
	}
}

func TestStorageBackends(t *testing.T) {
	t.Run("yaml file", func(t *testing.T) {
		work := isolate(t)
		mustRun(t, "-file", "tasks.yaml", "add", "-p", "high", "yaml task")

		data, err := os.ReadFile(filepath.Join(work, "tasks.yaml"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "title: yaml task") {
			t.Errorf("expected YAML snapshot, got:\n%s", data)
		}
		if out := mustRun(t, "-file", "tasks.yaml", "ls"); !strings.Contains(out, "yaml task") {
			t.Errorf("ls:\n%s", out)
		}
	})

	t.Run("memory", func(t *testing.T) {
		work := isolate(t)
		mustRun(t, "-storage", "memory", "add", "gone")
		if out := mustRun(t, "-storage", "memory", "ls"); !strings.Contains(out, "No tasks.") {
			t.Errorf("memory storage should not persist across runs:\n%s", out)
		}
		if _, err := os.Stat(filepath.Join(work, "tasks.json")); !os.IsNotExist(err) {
			t.Error("memory storage should not write a file")
		}
	})

	t.Run("redis", func(t *testing.T) {
		isolate(t)
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("start miniredis: %v", err)
		}
		defer mr.Close()

		t.Setenv("TASKLIST_STORAGE", "redis")
		t.Setenv("TASKLIST_REDIS_ADDR", mr.Addr())
		mustRun(t, "-redis-namespace", "cli", "cat", "add", "Work")
		mustRun(t, "-redis-namespace", "cli", "add", "-c", "Work", "in redis")

		if out := mustRun(t, "-redis-namespace", "cli", "ls"); !strings.Contains(out, "in redis  @Work") {
			t.Errorf("ls:\n%s", out)
		}
		if !mr.Exists("cli:todos") || !mr.Exists("cli:categories") {
			t.Error("expected cli:todos and cli:categories keys")
		}
		if out := mustRun(t, "-redis-namespace", "cli", "doctor"); !strings.Contains(out, "Connected") {
			t.Errorf("doctor on redis:\n%s", out)
		}
	})
}

package todo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is the snapshot file version written by Save.
const SchemaVersion = 1

// Task represents a single entry in the task list.
type Task struct {
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"desc" yaml:"desc"`
	Priority    Priority `json:"priority" yaml:"priority"`
	Category    string   `json:"category" yaml:"category"`
	Done        bool     `json:"done" yaml:"done"`
}

// Category is a named group tasks can point at by name.
type Category struct {
	Name string `json:"name" yaml:"name"`
}

// File represents the snapshot file structure.
type File struct {
	SchemaVersion int        `json:"schema_version" yaml:"schema_version"`
	Tasks         []Task     `json:"tasks" yaml:"tasks"`
	Categories    []Category `json:"categories" yaml:"categories"`
}

// NewFile builds a snapshot file from the two sequences.
func NewFile(tasks []Task, categories []Category) *File {
	f := &File{
		SchemaVersion: SchemaVersion,
		Tasks:         append([]Task{}, tasks...),
		Categories:    append([]Category{}, categories...),
	}
	return f
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath is the path to a JSON Schema file.
	// If empty, the embedded snapshot schema is used.
	SchemaPath string
	// SkipSchema disables JSON Schema validation and runs only the
	// minimal checks.
	SkipSchema bool
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

// isYAML reports whether path should be encoded as YAML.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load reads and parses a snapshot file from path.
// Files ending in .yaml or .yml are decoded as YAML, everything else as JSON.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}
	return Decode(data, isYAML(path))
}

// Decode parses snapshot bytes.
func Decode(data []byte, asYAML bool) (*File, error) {
	var f File
	if asYAML {
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse task file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse task file: %w", err)
		}
	}
	f.normalize()
	return &f, nil
}

// normalize fills defaults that older snapshots may lack.
func (f *File) normalize() {
	for i := range f.Tasks {
		if f.Tasks[i].Priority == "" {
			f.Tasks[i].Priority = DefaultPriority
		}
	}
}

// document returns a copy of f whose sequences encode as empty arrays
// rather than null.
func (f *File) document() File {
	doc := *f
	if doc.Tasks == nil {
		doc.Tasks = []Task{}
	}
	if doc.Categories == nil {
		doc.Categories = []Category{}
	}
	return doc
}

// Encode renders the file as JSON or YAML, both with 2-space indentation.
func (f *File) Encode(asYAML bool) ([]byte, error) {
	doc := f.document()
	if asYAML {
		// yaml.v3 cannot read back the |4- block scalars its default
		// indent writes for text that starts with spaces.
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&doc); err != nil {
			return nil, fmt.Errorf("marshal task file: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("marshal task file: %w", err)
		}
		return buf.Bytes(), nil
	}
	data, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal task file: %w", err)
	}

	// Add trailing newline
	return append(data, '\n'), nil
}

// Save writes the file to path. The content goes to a temporary file in the
// same directory first and is renamed into place.
func (f *File) Save(path string) error {
	if f.SchemaVersion == 0 {
		f.SchemaVersion = SchemaVersion
	}
	data, err := f.Encode(isYAML(path))
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write task file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write task file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write task file: %w", err)
	}

	return nil
}

// Validate validates the snapshot file.
func (f *File) Validate(opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	if !opts.SkipSchema {
		schemaResult := validateWithSchema(f, opts.SchemaPath)
		result.UsedSchema = schemaResult.UsedSchema
		if len(schemaResult.Warnings) > 0 {
			result.Warnings = append(result.Warnings, schemaResult.Warnings...)
		}
		if schemaResult.UsedSchema && !schemaResult.Valid {
			result.Valid = false
			result.Errors = append(result.Errors, schemaResult.Errors...)
		}
		if !schemaResult.UsedSchema {
			result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		}
	}

	// Reference checks are outside what the schema can express,
	// so the minimal pass always runs.
	f.validateMinimal(result)

	return result
}

// validateMinimal performs validation without JSON Schema.
func (f *File) validateMinimal(result *ValidationResult) {
	addErr := func(err *ValidationError) {
		for _, existing := range result.Errors {
			if existing.Error() == err.Error() {
				return
			}
		}
		result.Valid = false
		result.Errors = append(result.Errors, err)
	}

	if f.SchemaVersion != SchemaVersion {
		addErr(&ValidationError{
			Path: "schema_version",
			Err:  fmt.Errorf("expected %d, got %d", SchemaVersion, f.SchemaVersion),
		})
	}

	names := make(map[string]int, len(f.Categories))
	for i, c := range f.Categories {
		path := fmt.Sprintf("categories[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			addErr(&ValidationError{Path: path + ".name", Err: fmt.Errorf("missing required field")})
			continue
		}
		names[c.Name]++
	}
	for i, c := range f.Categories {
		if names[c.Name] > 1 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("categories[%d].name: duplicate category %q", i, c.Name))
		}
	}

	for i := range f.Tasks {
		path := fmt.Sprintf("tasks[%d]", i)
		if err := validateTaskMinimal(&f.Tasks[i], path, names); err != nil {
			addErr(err)
		}
	}
}

// validateTaskMinimal performs minimal task validation.
func validateTaskMinimal(task *Task, path string, categories map[string]int) *ValidationError {
	if strings.TrimSpace(task.Title) == "" {
		return &ValidationError{
			Path: path + ".title",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	if !task.Priority.Valid() {
		return &ValidationError{
			Path: path + ".priority",
			Err:  fmt.Errorf("invalid priority %q, must be one of: High, Medium, Low", task.Priority),
		}
	}

	if task.Category != "" && categories[task.Category] == 0 {
		return &ValidationError{
			Path: path + ".category",
			Err:  fmt.Errorf("references unknown category %q", task.Category),
		}
	}

	return nil
}

// Repair clears category references that point at no existing category.
// It returns the number of tasks changed.
func (f *File) Repair() int {
	names := make(map[string]bool, len(f.Categories))
	for _, c := range f.Categories {
		names[c.Name] = true
	}
	fixed := 0
	for i := range f.Tasks {
		if f.Tasks[i].Category != "" && !names[f.Tasks[i].Category] {
			f.Tasks[i].Category = ""
			fixed++
		}
	}
	if f.SchemaVersion == 0 {
		f.SchemaVersion = SchemaVersion
	}
	return fixed
}

// compileSchema compiles the schema at schemaPath, or the embedded
// schema when schemaPath is empty.
func compileSchema(schemaPath string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	if schemaPath == "" {
		if err := compiler.AddResource(embeddedSchemaURL, strings.NewReader(snapshotSchema)); err != nil {
			return nil, err
		}
		return compiler.Compile(embeddedSchemaURL)
	}
	return compiler.Compile(schemaPath)
}

// validateWithSchema attempts JSON Schema validation.
func validateWithSchema(f *File, schemaPath string) *ValidationResult {
	result := &ValidationResult{
		Valid:      true,
		Errors:     make([]error, 0),
		Warnings:   make([]string, 0),
		UsedSchema: false,
	}

	if schemaPath != "" {
		absPath, err := filepath.Abs(schemaPath)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema path: %v", err))
			return result
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				result.Warnings = append(result.Warnings, fmt.Sprintf("schema file not found: %s", absPath))
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("failed to read schema file: %v", err))
			}
			return result
		}
		schemaPath = absPath
	}

	schema, err := compileSchema(schemaPath)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("invalid schema file: %v", err))
		return result
	}

	result.UsedSchema = true

	// Marshal the file back to JSON for validation
	doc := f.document()
	fileData, err := json.Marshal(&doc)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "",
			Err:  fmt.Errorf("failed to marshal file for validation: %w", err),
		})
		return result
	}

	var fileObj interface{}
	if err := json.Unmarshal(fileData, &fileObj); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Path: "",
			Err:  fmt.Errorf("failed to unmarshal file for validation: %w", err),
		})
		return result
	}

	if err := schema.Validate(fileObj); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}

	return result
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	parts := strings.Split(ptr, "/")
	path := ""
	for _, part := range parts {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}

	return path
}

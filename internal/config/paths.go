package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// expandPaths rewrites the path-valued keys data_file, schema_file and
// log_dir in place.
func expandPaths(cfg *Config) {
	for _, p := range []*string{&cfg.DataFile, &cfg.SchemaFile, &cfg.LogDir} {
		*p = expandPath(*p)
	}
}

// expandPath resolves environment variables and a leading ~ in one path.
// On Windows %VAR% references and a ~\ prefix are understood as well.
func expandPath(p string) string {
	if p == "" {
		return ""
	}
	p = expandEnv(p)

	rest, ok := strings.CutPrefix(p, "~")
	if !ok {
		return p
	}
	if rest != "" && rest[0] != '/' && !(runtime.GOOS == "windows" && rest[0] == '\\') {
		// ~user is left alone.
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if rest == "" {
		return home
	}
	return filepath.Join(home, rest[1:])
}

func expandEnv(p string) string {
	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = expandPercentVars(p)
	}
	return p
}

// expandPercentVars replaces %VAR% with its value. Unset variables and a
// lone % are kept verbatim.
func expandPercentVars(p string) string {
	var b strings.Builder
	for {
		before, after, found := strings.Cut(p, "%")
		b.WriteString(before)
		if !found {
			return b.String()
		}
		name, tail, closed := strings.Cut(after, "%")
		switch {
		case !closed:
			b.WriteByte('%')
			b.WriteString(after)
			return b.String()
		case name == "":
			b.WriteByte('%')
			p = after
			continue
		}
		if val, ok := os.LookupEnv(name); ok {
			b.WriteString(val)
		} else {
			b.WriteString("%" + name + "%")
		}
		p = tail
	}
}

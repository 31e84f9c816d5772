// Package allowlist suppresses findings in known-good locations, such as
// the team's own repositories or documented example files.
package allowlist

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/leakwatch/internal/domain/model"
	"github.com/ericfisherdev/leakwatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AllowList = (*AllowList)(nil)

// rulesFile is the on-disk YAML shape:
//
//	repositories:
//	  - myorg/*
//	files:
//	  - "**/testdata/**"
//	  - "*.example"
type rulesFile struct {
	Repositories []string `yaml:"repositories"`
	Files        []string `yaml:"files"`
}

type rule struct {
	pattern string
	g       glob.Glob
	// bare is true for patterns without a separator; those also match
	// against the file's base name, so "*.example" covers nested paths.
	bare bool
}

// AllowList matches leak records against glob rules for repository full
// names and file paths. '/' is the only separator; '**' crosses it.
type AllowList struct {
	repos []rule
	files []rule
}

// Load reads the rules file at the given path. A missing file yields an
// empty allowlist, not an error; the feature is opt-in. An invalid pattern
// fails loading with the offending pattern named.
func Load(filePath string) (*AllowList, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &AllowList{}, nil
		}
		return nil, fmt.Errorf("reading allowlist: %w", err)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing allowlist %s: %w", filePath, err)
	}

	list := &AllowList{}
	if list.repos, err = compileRules(rf.Repositories); err != nil {
		return nil, fmt.Errorf("allowlist %s: %w", filePath, err)
	}
	if list.files, err = compileRules(rf.Files); err != nil {
		return nil, fmt.Errorf("allowlist %s: %w", filePath, err)
	}
	return list, nil
}

func compileRules(patterns []string) ([]rule, error) {
	var rules []rule
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		rules = append(rules, rule{pattern: p, g: g, bare: !strings.Contains(p, "/")})
	}
	return rules, nil
}

// Empty reports whether the allowlist has no rules at all.
func (a *AllowList) Empty() bool {
	return len(a.repos) == 0 && len(a.files) == 0
}

// RuleCount returns the number of repository and file rules, for the
// startup summary log.
func (a *AllowList) RuleCount() (repos, files int) {
	return len(a.repos), len(a.files)
}

// Contains reports whether the record matches an allow rule. Repository
// rules apply to every category; file rules apply to the location of code
// records only, since commit and issue records have no single file path.
func (a *AllowList) Contains(record model.LeakRecord) bool {
	for _, r := range a.repos {
		if r.g.Match(record.Repo.FullName) {
			return true
		}
	}
	if record.Category != model.CategoryCode || record.Location == "" {
		return false
	}
	for _, r := range a.files {
		if r.g.Match(record.Location) {
			return true
		}
		if r.bare && r.g.Match(path.Base(record.Location)) {
			return true
		}
	}
	return false
}

// Filter splits records into those that survive the allowlist and a count
// of those it suppressed.
func (a *AllowList) Filter(records []model.LeakRecord) (kept []model.LeakRecord, dropped int) {
	if a.Empty() {
		return records, 0
	}
	for _, rec := range records {
		if a.Contains(rec) {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}

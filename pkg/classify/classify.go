// Package classify categorizes files, functions, and classes as test or
// example code before extraction runs. Classification is path-based for
// files and name-based for functions and classes.
package classify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/codegraph-labs/codegraph/pkg/config"
)

// FileClass is the classification outcome for one file.
type FileClass struct {
	IsTest    bool
	IsExample bool
}

// Classifier applies the configured test and example rules.
type Classifier struct {
	testDirs    dirMatcher
	exampleDirs dirMatcher

	fileGlobs    []glob.Glob
	classGlobs   []glob.Glob
	funcPrefixes []string
}

// dirMatcher matches a file's directory path against configured patterns.
// Single-segment patterns ("tests") match any path segment; multi-segment
// patterns ("tests/unit") match segment-aligned at any depth.
type dirMatcher struct {
	segments map[string]bool
	nested   []string
}

func newDirMatcher(patterns []string) dirMatcher {
	m := dirMatcher{segments: make(map[string]bool, len(patterns))}
	for _, p := range patterns {
		p = strings.Trim(filepath.ToSlash(p), "/")
		if strings.Contains(p, "/") {
			m.nested = append(m.nested, p)
		} else {
			m.segments[p] = true
		}
	}
	return m
}

func (m dirMatcher) matches(dir string) bool {
	for _, part := range strings.Split(dir, "/") {
		if m.segments[part] {
			return true
		}
	}
	for _, p := range m.nested {
		if dir == p ||
			strings.HasPrefix(dir, p+"/") ||
			strings.HasSuffix(dir, "/"+p) ||
			strings.Contains(dir, "/"+p+"/") {
			return true
		}
	}
	return false
}

// New compiles the classification rules. Config should already be
// validated; compile errors here are still reported.
func New(cfg config.ClassifyConfig) (*Classifier, error) {
	c := &Classifier{
		testDirs:     newDirMatcher(cfg.TestDirs),
		exampleDirs:  newDirMatcher(cfg.ExampleDirs),
		funcPrefixes: cfg.TestFuncPrefixes,
	}
	for _, pattern := range cfg.TestFileGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling test file glob %q: %w", pattern, err)
		}
		c.fileGlobs = append(c.fileGlobs, g)
	}
	for _, pattern := range cfg.TestClassPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compiling test class pattern %q: %w", pattern, err)
		}
		c.classGlobs = append(c.classGlobs, g)
	}
	return c, nil
}

// Classify categorizes a file by its path relative to the scan root.
func (c *Classifier) Classify(path string) FileClass {
	dir := filepath.ToSlash(filepath.Dir(path))
	fc := FileClass{
		IsTest:    c.testDirs.matches(dir),
		IsExample: c.exampleDirs.matches(dir),
	}
	if !fc.IsTest && c.matchesTestGlob(path) {
		fc.IsTest = true
	}
	return fc
}

// IsTestFile reports whether the path classifies as a test file.
func (c *Classifier) IsTestFile(path string) bool {
	return c.Classify(path).IsTest
}

// matchesTestGlob matches the basename with its extension stripped, so that
// "test_*" covers test_app.py and test_app.ts alike.
func (c *Classifier) matchesTestGlob(path string) bool {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, g := range c.fileGlobs {
		if g.Match(stem) {
			return true
		}
	}
	return false
}

// IsTestFunction reports whether a function name marks a test. Qualified
// member names match on the member part.
func (c *Classifier) IsTestFunction(name string) bool {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	for _, prefix := range c.funcPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// IsTestClass reports whether a class name matches a test class pattern.
func (c *Classifier) IsTestClass(name string) bool {
	for _, g := range c.classGlobs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

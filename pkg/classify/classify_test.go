package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-labs/codegraph/pkg/config"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(config.DefaultConfig().Classify)
	require.NoError(t, err)
	return c
}

func TestClassifyTestDirs(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		path string
		want bool
	}{
		{"tests/helpers.py", true},
		{"pkg/tests/helpers.py", true},
		{"test/app.py", true},
		{"testing/app.py", true},
		{"src/app.py", false},
		{"contests/app.py", false}, // substring of a test dir name is not a match
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsTestFile(tt.path), tt.path)
	}
}

func TestClassifyNestedTestDirPattern(t *testing.T) {
	cfg := config.DefaultConfig().Classify
	cfg.TestDirs = []string{"tests/unit", "qa"}
	c, err := New(cfg)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"tests/unit/helpers.py", true},
		{"pkg/tests/unit/helpers.py", true},
		{"tests/unit/deep/helpers.py", true},
		{"qa/app.py", true},
		{"tests/integration/app.py", false}, // "tests" alone is not configured
		{"unit/app.py", false},
		{"mytests/unit_app.py", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsTestFile(tt.path), tt.path)
	}
}

func TestClassifyTestFileGlobs(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		path string
		want bool
	}{
		{"src/test_app.py", true},
		{"src/app_test.py", true},
		{"src/app_test.go", true},
		{"src/test_routes.ts", true},
		{"src/app.py", false},
		{"src/latest_app.py", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IsTestFile(tt.path), tt.path)
	}
}

func TestClassifyExampleDirs(t *testing.T) {
	c := newClassifier(t)

	assert.True(t, c.Classify("examples/demo.py").IsExample)
	assert.True(t, c.Classify("docs/examples/demo.py").IsExample)
	assert.False(t, c.Classify("src/demo.py").IsExample)

	// A test-named file under examples carries both flags.
	fc := c.Classify("examples/test_demo.py")
	assert.True(t, fc.IsExample)
	assert.True(t, fc.IsTest)
}

func TestIsTestFunction(t *testing.T) {
	c := newClassifier(t)

	assert.True(t, c.IsTestFunction("test_login"))
	assert.False(t, c.IsTestFunction("login"))
	assert.False(t, c.IsTestFunction("latest_value"))

	// Qualified members match on the member name.
	assert.True(t, c.IsTestFunction("TestAuth.test_login"))
	assert.False(t, c.IsTestFunction("TestAuth.setup"))
}

func TestIsTestClass(t *testing.T) {
	c := newClassifier(t)

	assert.True(t, c.IsTestClass("TestAuth"))
	assert.True(t, c.IsTestClass("AuthTest"))
	assert.False(t, c.IsTestClass("Authenticator"))
	assert.False(t, c.IsTestClass("Latest"))
}

func TestNewRejectsBadGlob(t *testing.T) {
	cfg := config.DefaultConfig().Classify
	cfg.TestFileGlobs = []string{"[unclosed"}
	_, err := New(cfg)
	assert.Error(t, err)
}

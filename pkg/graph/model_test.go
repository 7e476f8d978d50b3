package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityKey(t *testing.T) {
	concrete := Entity{Kind: KindFunction, Name: "process", File: "app.py"}
	assert.Equal(t, Key{Kind: KindFunction, Name: "process", File: "app.py"}, concrete.Key())

	// Placeholders are keyed by name alone so call sites in different
	// files converge on one node.
	ref := Entity{Kind: KindFunction, Name: "process", IsReference: true}
	assert.Equal(t, Key{Kind: KindFunction, Name: "process"}, ref.Key())
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "Function:process:app.py",
		Key{Kind: KindFunction, Name: "process", File: "app.py"}.String())
	assert.Equal(t, "Function:process",
		Key{Kind: KindFunction, Name: "process"}.String())
}

func TestKeyHashStable(t *testing.T) {
	k := Key{Kind: KindClass, Name: "Ledger", File: "ledger.py"}
	assert.Equal(t, k.Hash(), k.Hash())
	assert.NotEqual(t, k.Hash(), Key{Kind: KindClass, Name: "Ledger"}.Hash())
}

func TestRelationshipIdentity(t *testing.T) {
	from := Key{Kind: KindFunction, Name: "caller", File: "a.py"}
	to := Key{Kind: KindFunction, Name: "callee", File: "b.py"}

	// Distinct call sites are distinct edges.
	r1 := Relationship{Kind: RelCalls, From: from, To: to, Line: 10, Args: "x"}
	r2 := Relationship{Kind: RelCalls, From: from, To: to, Line: 12, Args: "x"}
	assert.NotEqual(t, r1.Identity(), r2.Identity())

	// The same call site is one edge.
	r3 := Relationship{Kind: RelCalls, From: from, To: to, Line: 10, Args: "x"}
	assert.Equal(t, r1.Identity(), r3.Identity())

	// TESTS edges are distinct per derivation method.
	t1 := Relationship{Kind: RelTests, From: from, To: to, Method: MethodNamingPattern}
	t2 := Relationship{Kind: RelTests, From: from, To: to, Method: MethodCall}
	assert.NotEqual(t, t1.Identity(), t2.Identity())

	// CONTAINS edges collapse regardless of properties.
	c1 := Relationship{Kind: RelContains, From: from, To: to}
	c2 := Relationship{Kind: RelContains, From: from, To: to, Line: 99}
	assert.Equal(t, c1.Identity(), c2.Identity())
}

func TestEntityFilterMatches(t *testing.T) {
	concrete := Entity{Kind: KindFunction, Name: "run", File: "main.py"}
	ref := Entity{Kind: KindFunction, Name: "run", IsReference: true}

	assert.True(t, EntityFilter{}.Matches(concrete))
	assert.True(t, EntityFilter{Kind: KindFunction}.Matches(concrete))
	assert.False(t, EntityFilter{Kind: KindClass}.Matches(concrete))
	assert.True(t, EntityFilter{Name: "run", File: "main.py"}.Matches(concrete))
	assert.False(t, EntityFilter{File: "other.py"}.Matches(concrete))

	assert.True(t, EntityFilter{ReferenceOnly: true}.Matches(ref))
	assert.False(t, EntityFilter{ReferenceOnly: true}.Matches(concrete))
	assert.True(t, EntityFilter{ConcreteOnly: true}.Matches(concrete))
	assert.False(t, EntityFilter{ConcreteOnly: true}.Matches(ref))
}

func TestRelFilterMatches(t *testing.T) {
	from := Key{Kind: KindFile, Name: "a.py", File: "a.py"}
	to := Key{Kind: KindFunction, Name: "run", File: "a.py"}
	r := Relationship{Kind: RelContains, From: from, To: to}

	assert.True(t, RelFilter{}.Matches(r))
	assert.True(t, RelFilter{Kind: RelContains}.Matches(r))
	assert.False(t, RelFilter{Kind: RelCalls}.Matches(r))
	assert.True(t, RelFilter{From: &from}.Matches(r))
	assert.True(t, RelFilter{To: &to}.Matches(r))
	other := Key{Kind: KindFunction, Name: "other"}
	assert.False(t, RelFilter{From: &other}.Matches(r))
}

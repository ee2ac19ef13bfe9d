package codebase

import "strings"

// Package represents a candidate software package discovered in PurlDB.
type Package struct {
	ID        int64
	ProjectID string
	Type      string
	Namespace string
	Name      string
	Version   string
	PURL      string
}

// GroupKey identifies a logical package independent of version. Multiple
// versions of the same package share one key and compete during reduction.
type GroupKey struct {
	Namespace string
	Name      string
}

// Group returns the version-agnostic grouping key for the package.
func (p *Package) Group() GroupKey {
	return GroupKey{Namespace: p.Namespace, Name: p.Name}
}

// BuildPURL assembles a package URL from its parts, e.g.
// pkg:maven/org.foo/bar@1.0. It is the package's identity key within a
// project.
func BuildPURL(ptype, namespace, name, version string) string {
	var b strings.Builder
	b.WriteString("pkg:")
	if ptype == "" {
		ptype = "generic"
	}
	b.WriteString(ptype)
	if namespace != "" {
		b.WriteByte('/')
		b.WriteString(namespace)
	}
	b.WriteByte('/')
	b.WriteString(name)
	if version != "" {
		b.WriteByte('@')
		b.WriteString(version)
	}
	return b.String()
}

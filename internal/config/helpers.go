package config

import "github.com/MyCarrier-DevOps/go-gitversioning/internal/git"

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func sortKeyPtr(k git.SortKey) *git.SortKey { return &k }

func stringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

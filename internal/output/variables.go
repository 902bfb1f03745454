// Package output renders a resolved version as plain text, JSON, a single
// variable or an explanation.
package output

import (
	"strconv"

	"github.com/MyCarrier-DevOps/go-gitversioning/internal/resolver"
)

// Variable names.
const (
	VarVersion  = "Version"
	VarPublic   = "Public"
	VarLocal    = "Local"
	VarSource   = "Source"
	VarTemplate = "Template"
	VarTag      = "Tag"
	VarSha      = "Sha"
	VarFullSha  = "FullSha"
	VarCCount   = "CCount"
	VarBranch   = "Branch"
	VarDirty    = "Dirty"
)

// GetVariables computes all output variables for a resolution result.
// Unknown values are empty strings.
func GetVariables(res *resolver.Result) map[string]string {
	snap := res.Snapshot

	ccount := ""
	if snap.CCount != nil {
		ccount = strconv.Itoa(*snap.CCount)
	}
	branch := ""
	if snap.Branch != nil {
		branch = *snap.Branch
	}
	sha := snap.HeadSha
	if len(sha) > 8 {
		sha = sha[:8]
	}

	return map[string]string{
		VarVersion:  res.Version.String(),
		VarPublic:   res.Version.Public(),
		VarLocal:    res.Version.LocalString(),
		VarSource:   string(res.Source),
		VarTemplate: res.Template,
		VarTag:      snap.Tag,
		VarSha:      sha,
		VarFullSha:  snap.HeadSha,
		VarCCount:   ccount,
		VarBranch:   branch,
		VarDirty:    strconv.FormatBool(snap.Dirty),
	}
}

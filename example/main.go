// Example program demonstrating the gitversioning library API.
//
// Run from the repo root:
//
//	go run ./example/
//
// With remote mode (set GITHUB_TOKEN first):
//
//	GITHUB_TOKEN=ghp_xxx go run ./example/
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/MyCarrier-DevOps/go-gitversioning/pkg/gitversioning"
)

func main() {
	ctx := context.Background()

	localVersion(ctx)

	if os.Getenv("GITHUB_TOKEN") != "" {
		remoteVersion(ctx)
	}
}

// localVersion resolves the working copy without a configuration file,
// using a Go tag formatter and a registered branch formatter.
func localVersion(ctx context.Context) {
	if err := gitversioning.Register("example.formatters:branch", func(branch string) string {
		return strings.ReplaceAll(branch, "/", "-")
	}); err != nil {
		log.Fatalf("registering branch formatter: %v", err)
	}

	opts := gitversioning.DefaultOptions()
	opts.TagFormatter = gitversioning.Ref{Fn: func(tag string) (string, error) {
		return strings.TrimPrefix(tag, "v"), nil
	}}
	opts.BranchFormatter = gitversioning.Ref{Spec: "example.formatters:branch"}
	opts.DevTemplate = "{tag}.post{ccount}+{branch}.{sha}"

	result, err := gitversioning.ResolveWith(ctx, ".", opts)
	if err != nil {
		log.Fatalf("local resolution failed: %v", err)
	}

	printVersion("Local", result)
}

func remoteVersion(ctx context.Context) {
	result, err := gitversioning.ResolveRemote(ctx, gitversioning.RemoteOptions{
		Owner: "MyCarrier-DevOps",
		Repo:  "go-gitversioning",
		Token: os.Getenv("GITHUB_TOKEN"),
		Ref:   "main",
	})
	if err != nil {
		log.Fatalf("remote resolution failed: %v", err)
	}

	printVersion("Remote", result)
}

func printVersion(label string, result *gitversioning.Result) {
	fmt.Printf("=== %s Version ===\n", label)

	keys := make([]string, 0, len(result.Variables))
	for k := range result.Variables {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Printf("%-12s %s\n", k, result.Variables[k])
	}
	fmt.Println()
	fmt.Print(result.Explanation)
	fmt.Println()
}

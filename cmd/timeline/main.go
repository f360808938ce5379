package main

import (
	"net/url"
	"os"
	"strings"

	"timeline-cli/internal/cli"
)

// slugFromLink extracts <slug> from a shared link such as https://host/timeline/<slug>.
func slugFromLink(s string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != "timeline" || parts[1] == "" {
		return "", false
	}
	slug, err := url.PathUnescape(parts[1])
	if err != nil {
		return "", false
	}
	return slug, true
}

func rewriteLinkArgs(argv []string) []string {
	// Convenience: `timeline <link>` works like `timeline edit <slug>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv before parsing.
	// Persistent flags may come first, so find the first positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	// Unrecognized flags are skipped without consuming a value so the link is never eaten.
	valueFlags := map[string]bool{
		"--api":           true,
		"--drafts":        true,
		"--draft-backend": true,
		"--format":        true,
		"--log-level":     true,
		"--log-file":      true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	rewrite := func(i int, slug string) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "edit", slug)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if slug, ok := slugFromLink(argv[i+1]); ok {
					return rewrite(i+1, slug)
				}
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}

		if slug, ok := slugFromLink(a); ok {
			return rewrite(i, slug)
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteLinkArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

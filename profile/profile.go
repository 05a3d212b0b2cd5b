// Package profile discovers AWS profiles from the shared credentials and
// config files and enumerates usable regions for a profile.
package profile

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-ini/ini"
	"github.com/rs/zerolog"

	"github.com/spyglass-dev/spyglass/dispatch"
	"github.com/spyglass-dev/spyglass/extract"
	"github.com/spyglass-dev/spyglass/registry"
)

// fallbackRegions is the static region list used when DescribeRegions is
// unreachable (no credentials, offline, restricted account).
var fallbackRegions = []string{
	"us-east-1",
	"us-east-2",
	"us-west-1",
	"us-west-2",
	"af-south-1",
	"ap-east-1",
	"ap-south-1",
	"ap-south-2",
	"ap-southeast-1",
	"ap-southeast-2",
	"ap-southeast-3",
	"ap-southeast-4",
	"ap-northeast-1",
	"ap-northeast-2",
	"ap-northeast-3",
	"ca-central-1",
	"eu-central-1",
	"eu-central-2",
	"eu-west-1",
	"eu-west-2",
	"eu-west-3",
	"eu-south-1",
	"eu-south-2",
	"eu-north-1",
	"me-south-1",
	"me-central-1",
	"sa-east-1",
}

// List returns every profile named in the shared credentials file and the
// shared config file, deduplicated and sorted. "default" is always present
// even when neither file exists; a missing or unreadable file contributes
// nothing rather than failing the listing.
func List() []string {
	seen := map[string]struct{}{"default": {}}

	for name := range sectionNames(credentialsPath()) {
		seen[name] = struct{}{}
	}
	for name := range sectionNames(configPath()) {
		// the config file prefixes non-default sections with "profile "
		seen[strings.TrimPrefix(name, "profile ")] = struct{}{}
	}

	profiles := make([]string, 0, len(seen))
	for name := range seen {
		profiles = append(profiles, name)
	}
	sort.Strings(profiles)
	return profiles
}

func sectionNames(path string) map[string]struct{} {
	names := map[string]struct{}{}
	if path == "" {
		return names
	}
	f, err := ini.LooseLoad(path)
	if err != nil {
		return names
	}
	for _, section := range f.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		names[section.Name()] = struct{}{}
	}
	return names
}

func credentialsPath() string {
	if path := os.Getenv("AWS_SHARED_CREDENTIALS_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "credentials")
}

func configPath() string {
	if path := os.Getenv("AWS_CONFIG_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "config")
}

// describeRegions lists regions the account can use without opting in
// plus those it has opted into.
var describeRegions = registry.OperationSpec{
	Service:   "ec2",
	Operation: "DescribeRegions",
	StaticParams: map[string]any{
		"Filter.1.Name":    "opt-in-status",
		"Filter.1.Value.1": "opt-in-not-required",
		"Filter.1.Value.2": "opted-in",
	},
}

// Source resolves regions through the live API.
type Source struct {
	disp   *dispatch.Dispatcher
	logger zerolog.Logger
}

func NewSource(disp *dispatch.Dispatcher, logger zerolog.Logger) *Source {
	return &Source{disp: disp, logger: logger}
}

// Regions asks EC2 for the regions available to the target profile. On any
// failure, or an empty answer, it falls back to the static list so region
// selection keeps working offline.
func (s *Source) Regions(ctx context.Context, target dispatch.Target) []string {
	raw, err := s.disp.Invoke(ctx, target, describeRegions, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("region listing failed, using static fallback")
		return Fallback()
	}

	items := extract.Collect(raw, "regionInfo.item[*].regionName")
	regions := make([]string, 0, len(items))
	for _, item := range items {
		if name, ok := item.(string); ok && name != "" {
			regions = append(regions, name)
		}
	}
	if len(regions) == 0 {
		s.logger.Warn().Msg("region listing came back empty, using static fallback")
		return Fallback()
	}

	sort.Strings(regions)
	return dedup(regions)
}

// Fallback returns a copy of the static region list.
func Fallback() []string {
	out := make([]string, len(fallbackRegions))
	copy(out, fallbackRegions)
	return out
}

func dedup(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}

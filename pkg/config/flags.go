package config

import "github.com/xplshn/blockc/pkg/cli"

// SetupFlagGroups registers -W<warning> and -F<feature> flags on fs. The returned
// entries are indexed by Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) (warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		enabled, disabled := info.Enabled, false
		warningFlags = append(warningFlags, cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "W",
			Usage:    info.Description,
			Enabled:  &enabled,
			Disabled: &disabled,
		})
	}
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		enabled, disabled := info.Enabled, false
		featureFlags = append(featureFlags, cli.FlagGroupEntry{
			Name:     info.Name,
			Prefix:   "F",
			Usage:    info.Description,
			Enabled:  &enabled,
			Disabled: &disabled,
		})
	}

	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable generator features", "feature", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies the group flags the user actually passed onto c, leaving
// everything else as configured by defaults or a config file.
func (c *Config) ApplyFlagGroups(fs *cli.FlagSet, warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if fs.Changed(entry.Prefix+entry.Name) && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if fs.Changed(entry.Prefix+"no-"+entry.Name) && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if fs.Changed(entry.Prefix+entry.Name) && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if fs.Changed(entry.Prefix+"no-"+entry.Name) && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}

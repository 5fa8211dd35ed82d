// Package toolchain models the release channel of the native build toolchain.
package toolchain

import "strings"

// Channel identifies the release track of the installed toolchain.
type Channel int

const (
	// ChannelUnknown is any unrecognized or unset channel string.
	ChannelUnknown Channel = iota
	ChannelStable
	ChannelBeta
	ChannelNightly
)

// Parse maps a channel string to a Channel. Unrecognized values,
// including the empty string, map to ChannelUnknown rather than
// erroring: an unset channel simply never enables nightly-only paths.
func Parse(value string) Channel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "stable":
		return ChannelStable
	case "beta":
		return ChannelBeta
	case "nightly":
		return ChannelNightly
	default:
		return ChannelUnknown
	}
}

// String returns the canonical channel name.
func (c Channel) String() string {
	switch c {
	case ChannelStable:
		return "stable"
	case ChannelBeta:
		return "beta"
	case ChannelNightly:
		return "nightly"
	default:
		return "unknown"
	}
}

// Nightly reports whether nightly-only suite branches should run.
func (c Channel) Nightly() bool {
	return c == ChannelNightly
}

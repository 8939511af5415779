// Package kick knows how to address a Kick channel and how to reach it
// through a proxy.
package kick

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChannel means no channel name could be extracted from the input
var ErrInvalidChannel = errors.New("invalid Kick channel URL")

// ParseChannelURL extracts the canonical channel name from a bare name, a
// channel URL, or a URL with a trailing livestream path or query string:
//
//	xqc                                    -> xqc
//	https://kick.com/xqc/livestream/123    -> xqc
//	kick.com/xqc?clip=1                    -> xqc
func ParseChannelURL(raw string) (string, error) {
	name := raw
	if _, rest, found := strings.Cut(name, "kick.com/"); found {
		name = rest
	}

	name, _, _ = strings.Cut(name, "/")
	name, _, _ = strings.Cut(name, "?")
	name = strings.TrimSpace(name)

	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, raw)
	}
	return name, nil
}

// ChannelPageURL is the public page for a channel
func ChannelPageURL(channel string) string {
	return "https://kick.com/" + channel
}

// ChannelAPIURL is the metadata endpoint polled on connect and heartbeat
func ChannelAPIURL(channel string) string {
	return "https://kick.com/api/v2/channels/" + channel
}

// ChannelInfo is the slice of the channel metadata response the viewer
// cares about: a non-null livestream field means the channel is live.
type ChannelInfo struct {
	Livestream json.RawMessage `json:"livestream"`
}

// IsLive reports whether the metadata carries an active broadcast
func (c ChannelInfo) IsLive() bool {
	s := string(c.Livestream)
	return len(c.Livestream) > 0 && s != "null"
}

// ParseChannelInfo decodes a channel metadata payload
func ParseChannelInfo(payload []byte) (ChannelInfo, error) {
	var info ChannelInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return ChannelInfo{}, fmt.Errorf("parse channel metadata: %w", err)
	}
	return info, nil
}

// Package display drives the external DS9-style viewer. It wraps the
// viewer's textual set/get command protocol, owns the mapping from live
// viewer frames to (source image, tile) pairs, and keeps the displayed
// overlay in sync with the on-disk region sidecars.
package display

import (
	"fmt"
	"os/exec"
	"strings"
)

// Viewer is the external viewer's command protocol: fire-and-forget "set"
// commands and blocking "get" queries. Exactly one request is outstanding
// at any time; the session is strictly synchronous.
type Viewer interface {
	// Set sends a command that changes viewer state, e.g. "scale zscale"
	Set(cmd string) error

	// SetWith sends a command whose body arrives as a payload, used for
	// the region drawing primitives
	SetWith(cmd, payload string) error

	// Get sends a query and returns the viewer's reply with surrounding
	// whitespace trimmed
	Get(cmd string) (string, error)
}

// XPA talks to a named viewer instance through the xpaset and xpaget
// command line tools
type XPA struct {
	// target is the viewer instance name, e.g. "blinkbo"
	target string
}

// NewXPA creates a viewer handle for the given XPA target name
func NewXPA(target string) *XPA {
	return &XPA{target: target}
}

// Set runs xpaset -p with the command split into arguments
func (v *XPA) Set(cmd string) error {
	args := append([]string{"-p", v.target}, strings.Fields(cmd)...)
	if out, err := exec.Command("xpaset", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("xpaset %s failed: %v: %s", cmd, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SetWith runs xpaset with the payload on stdin
func (v *XPA) SetWith(cmd, payload string) error {
	args := append([]string{v.target}, strings.Fields(cmd)...)
	c := exec.Command("xpaset", args...)
	c.Stdin = strings.NewReader(payload)
	if out, err := c.CombinedOutput(); err != nil {
		return fmt.Errorf("xpaset %s failed: %v: %s", cmd, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Get runs xpaget and returns the trimmed reply
func (v *XPA) Get(cmd string) (string, error) {
	args := append([]string{v.target}, strings.Fields(cmd)...)
	out, err := exec.Command("xpaget", args...).Output()
	if err != nil {
		return "", fmt.Errorf("xpaget %s failed: %w", cmd, err)
	}
	return strings.TrimSpace(string(out)), nil
}

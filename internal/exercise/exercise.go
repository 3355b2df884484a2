// Package exercise holds the per-exercise tracking configuration: which joint
// angle to sample and the hysteresis thresholds that turn it into reps.
package exercise

import (
	"errors"
	"fmt"
	"sort"

	"github.com/claude/repcounter/internal/pose"
)

// ErrUnknown is returned when a catalog lookup misses.
var ErrUnknown = errors.New("unknown exercise")

// Profile describes how one exercise is tracked. The angle is measured at
// Joints[1], between Joints[0] and Joints[2].
type Profile struct {
	ID     string
	Name   string
	Joints [3]pose.Landmark
	// Up is the angle above which the limb counts as extended.
	Up float64
	// Down is the angle below which, after Up, a rep is counted.
	Down float64
}

// Validate checks the profile invariants.
func (p Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("exercise id is required")
	}
	for i, j := range p.Joints {
		if !j.Valid() {
			return fmt.Errorf("exercise %s: joint %d: unknown landmark %q", p.ID, i, j)
		}
	}
	if p.Joints[0] == p.Joints[1] || p.Joints[1] == p.Joints[2] || p.Joints[0] == p.Joints[2] {
		return fmt.Errorf("exercise %s: joints must be distinct", p.ID)
	}
	if p.Up < 0 || p.Up > 180 || p.Down < 0 || p.Down > 180 {
		return fmt.Errorf("exercise %s: thresholds must be within [0, 180]", p.ID)
	}
	if p.Up <= p.Down {
		return fmt.Errorf("exercise %s: up threshold %.1f must be greater than down threshold %.1f", p.ID, p.Up, p.Down)
	}
	return nil
}

// DisplayName returns Name, falling back to ID.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Catalog is a validated, read-only set of profiles.
type Catalog struct {
	profiles map[string]Profile
	ids      []string
}

// NewCatalog validates the profiles and rejects duplicate IDs.
func NewCatalog(profiles ...Profile) (*Catalog, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("catalog needs at least one exercise")
	}
	c := &Catalog{profiles: make(map[string]Profile, len(profiles))}
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.profiles[p.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise id %q", p.ID)
		}
		c.profiles[p.ID] = p
		c.ids = append(c.ids, p.ID)
	}
	sort.Strings(c.ids)
	return c, nil
}

// Lookup returns the profile with the given ID.
func (c *Catalog) Lookup(id string) (Profile, error) {
	p, ok := c.profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknown, id)
	}
	return p, nil
}

// IDs returns the exercise IDs in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Profiles returns all profiles sorted by ID.
func (c *Catalog) Profiles() []Profile {
	out := make([]Profile, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.profiles[id])
	}
	return out
}

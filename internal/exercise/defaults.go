package exercise

import "github.com/claude/repcounter/internal/pose"

// DefaultProfiles is the built-in catalog used when the config lists none.
// Push-up thresholds follow the camera trainer (160/90); a stricter variant
// used 135/120, which is a config change.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			ID:     "pushup",
			Name:   "Push-up",
			Joints: [3]pose.Landmark{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
			Up:     160,
			Down:   90,
		},
		{
			ID:     "squat",
			Name:   "Squat",
			Joints: [3]pose.Landmark{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
			Up:     160,
			Down:   100,
		},
		{
			ID:     "curl",
			Name:   "Biceps curl",
			Joints: [3]pose.Landmark{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
			Up:     150,
			Down:   50,
		},
	}
}

// DefaultCatalog builds the catalog from DefaultProfiles.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultProfiles()...)
	if err != nil {
		panic("exercise: invalid default catalog: " + err.Error())
	}
	return c
}

package domain

// ProfileSnapshot is the view of a member served by the profile
// collaborator. The engine treats it as ground truth and re-reads it for
// every decision: opt-in can flip between any two visits.
type ProfileSnapshot struct {
	UserID        string
	DisplayName   string
	TrackingOptIn bool
	DiningStyle   string
	DietaryTags   []string
}

// HasDietaryTag reports whether the member lists the given dietary tag.
func (p ProfileSnapshot) HasDietaryTag(tag string) bool {
	for _, t := range p.DietaryTags {
		if t == tag {
			return true
		}
	}
	return false
}

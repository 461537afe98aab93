package collector

import "github.com/greenside/golfscout/internal/model"

// Classifier derives a facility category from provider type tags. Pure:
// the same tag set always yields the same category, and matching both
// sets always yields Mixed.
type Classifier struct {
	outdoor map[string]struct{}
	indoor  map[string]struct{}
}

// NewClassifier builds a classifier from the configured tag sets.
func NewClassifier(outdoorTags, indoorTags []string) *Classifier {
	c := &Classifier{
		outdoor: make(map[string]struct{}, len(outdoorTags)),
		indoor:  make(map[string]struct{}, len(indoorTags)),
	}
	for _, t := range outdoorTags {
		c.outdoor[t] = struct{}{}
	}
	for _, t := range indoorTags {
		c.indoor[t] = struct{}{}
	}
	return c
}

// Classify maps a tag set to a category.
func (c *Classifier) Classify(tags []string) model.Category {
	var out, in bool
	for _, t := range tags {
		if _, ok := c.outdoor[t]; ok {
			out = true
		}
		if _, ok := c.indoor[t]; ok {
			in = true
		}
	}
	switch {
	case out && in:
		return model.CategoryMixed
	case out:
		return model.CategoryOutdoor
	case in:
		return model.CategoryIndoor
	default:
		return model.CategoryOther
	}
}

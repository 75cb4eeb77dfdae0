package screening

// Contains reports whether profile appears anywhere in tags.
// Order and duplicates in tags are irrelevant; only containment is tested.
func Contains(tags []string, profile string) bool {
	for _, tag := range tags {
		if tag == profile {
			return true
		}
	}
	return false
}

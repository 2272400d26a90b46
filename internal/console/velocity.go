package console

import "fmt"

// VelocityClass is one row of the Cruden & Varnes landslide velocity
// scale. The scale is fixed reference data; it is never fetched.
type VelocityClass struct {
	Class       int
	Description string
	Velocity    string
	TypicalRate string
}

// VelocityScale returns the seven-class Cruden & Varnes scale in order
// from extremely rapid to extremely slow.
func VelocityScale() []VelocityClass {
	return []VelocityClass{
		{7, "Extremely rapid", "> 5 m/s", "catastrophic failure"},
		{6, "Very rapid", "3 m/min - 5 m/s", "evacuation impossible"},
		{5, "Rapid", "1.8 m/h - 3 m/min", "evacuation possible"},
		{4, "Moderate", "13 m/month - 1.8 m/h", "maintainable structures"},
		{3, "Slow", "1.6 m/year - 13 m/month", "remedial works feasible"},
		{2, "Very slow", "16 mm/year - 1.6 m/year", "some permanent structures undamaged"},
		{1, "Extremely slow", "< 16 mm/year", "imperceptible without instruments"},
	}
}

// ApplyVelocityClass acknowledges a class selection. The scale is
// display-only reference material, so the selection is confirmed locally
// and nothing is persisted.
func (c *Controller) ApplyVelocityClass(class int) error {
	for _, v := range VelocityScale() {
		if v.Class == class {
			c.notifier.Success(fmt.Sprintf("velocity class %d (%s) noted for reference", v.Class, v.Description))
			return nil
		}
	}
	c.notifier.Warning(fmt.Sprintf("unknown velocity class %d, valid classes are 1-7", class))
	return stateError("unknown velocity class")
}

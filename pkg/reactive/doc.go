// Package reactive implements reactive fields and computed values.
//
// A Field is an explicit wrapper around one state member. Writing a new
// value invalidates every computed value of the same instance, runs the
// watchers registered for the field, and asks the owning host for an
// update. Watchers and computed getters are declared once per type in a
// Type table and shared by all instances:
//
//	var counterType = reactive.Define[Counter]("Counter")
//
//	func init() {
//		_ = counterType.WatchMethod("count", "OnCount")
//		_ = counterType.ComputedMethod("Double")
//	}
//
//	type Counter struct {
//		scope *reactive.Scope
//		count *reactive.Field[int]
//	}
//
//	func (c *Counter) Double() int { return c.count.Get() * 2 }
//
// Invalidation is coarse: any field write marks every computed slot of the
// instance dirty. Change detection is by identity (see Same), so containers
// must be replaced rather than mutated in place.
package reactive

package domain

// A single motion directive sent to the simulator, valid for one cycle.
// Turn is an angular rate in radians per second; Speed is a forward rate in
// arena units per second. A zero-speed command stops the robot.
type Command struct {
	Turn  float64
	Speed float64
}

// Stop returns a command that halts the robot in place.
func Stop() Command { return Command{} }

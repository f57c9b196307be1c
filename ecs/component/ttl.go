package component

// TTL destroys its entity once Seconds of simulated time have elapsed.
// Dead agents get one for the post-death grace delay.
type TTL struct {
	Seconds float64
}

var TTLComponent = NewComponent[TTL]()

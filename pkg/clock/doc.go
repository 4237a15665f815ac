// Package clock provides the injectable time source used by the scheduler
// core. Production code uses System; tests drive time with Fake.
package clock

// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the time operations AgentRig schedules:
// reading the wall clock (frame deltas, fade ramps), one-shot deferred
// callbacks (the auto-idle transition after a one-shot clip), and
// periodic ticks (the poll cadence).
//
// Production code injects [Real]; tests inject [Fake] and drive time
// with Advance, making the poll loop and the auto-idle timer fully
// deterministic. Code under lib/ never calls the time package's timer
// constructors directly.
//
// # Wiring
//
//	machine := animation.NewMachine(animation.MachineConfig{
//	    Clock: clock.Real(),
//	    // ...
//	})
//
// In tests:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	// ... start the code under test ...
//	fake.WaitForTimers(1)         // timer registered
//	fake.Advance(3 * time.Second) // fires deterministically
package clock

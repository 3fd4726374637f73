/*
Package parley is an engine for scripted, branching conversations between a bot and a user.

Conversations are authored as sequences of numbered messages (JSON or YAML). The engine walks
a sequence from a starting message, emitting everything it can show until it reaches a message
that needs an answer, the end of the sequence, or a hand-off to another sequence.

# Concept

The host application owns the screen and the user. The engine owns the script: it evaluates
route conditions against the user's key/value store, applies data actions, fills "{path}"
placeholders in message text, and tracks visits and the daily task lifecycle. Storage and
sequence loading are ports, so the same engine runs against memory, files, Redis or SQLite.

# Key Features

  - Routing: conditional routes ("user.age >= 18 && user.verified") with default fallbacks.
  - Data actions: set, increment, decrement, reset, append, remove and trigger.
  - Templating: "{user.name|friend}" with fallbacks, resolved at display time.
  - Session state: visit counters, time-of-day buckets and a per-day task state machine.
  - Pacing: typing-speed delays and a per-consumer delivery queue that never interleaves turns.

# Usage

	package main

	import (
		"context"
		"log"
		"os"

		"github.com/aretw0/parley"
		"github.com/aretw0/parley/pkg/adapters/file"
		"github.com/aretw0/parley/pkg/adapters/memory"
	)

	func main() {
		ctx := context.Background()

		eng, err := parley.New(file.NewSource("./sequences"), memory.NewStore())
		if err != nil {
			log.Fatal(err)
		}
		defer eng.Close()

		if _, err := eng.InitializeSession(ctx); err != nil {
			log.Fatal(err)
		}

		runner := &parley.Runner{Input: os.Stdin, Output: os.Stdout}
		if err := runner.Run(ctx, eng, "welcome"); err != nil {
			log.Fatal(err)
		}
	}

Hosts that drive the conversation themselves call Start, then SelectChoice or SubmitText with
the message the returned Turn is awaiting, and Deliver to pace the entries to the screen.
*/
package parley

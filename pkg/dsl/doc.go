/*
Package dsl provides a Go DSL for building parley sequences programmatically.

It is an alternative to JSON or YAML documents when scripts are generated or used in
tests, and it benefits from type checking and IDE completion.

Example usage:

	welcome := dsl.New("welcome")
	welcome.Text(1, "Hi {user.name|there}!").Next(2)
	welcome.Choice(2, "Ready?").
		Option("Yes", 3).Value(true).OnSelect(dsl.Increment("stats.ready", nil)).
		OptionTo("Later", "goodbye")
	welcome.Input(3, "What should I call you?", "user.name").Next(4)
	welcome.Text(4, "Nice to meet you, {user.name}.")

	source, err := dsl.Source(welcome)
	if err != nil {
		return err
	}
	engine, err := parley.New(source, memory.NewStore())
*/
package dsl

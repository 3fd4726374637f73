/*
Package session maintains the per-visit facts of a conversation: visit counters, time of
day, and the daily task state machine.

Initialize is called once per app launch or resume. It updates counters, rolls the task
over to a new calendar day, escalates a pending task to overdue after its deadline and
recomputes the derived task.* flags that sequence conditions read.

Task status moves through:

	pending ──deadline──▶ overdue
	   │                     │
	   └──user──▶ completed / failed ◀──user──┘

Overdue never recovers automatically; only CompleteTask or FailTask leave it.
*/
package session

/*
Package condition evaluates the boolean guards used by sequence routes.

A comparison has the form "path op literal" where op is one of == != >= <= > < and the
literal is a quoted string ('...' or "...") or a bare token. Comparisons combine with && and
||; && binds tighter than || and there are no parentheses:

	session.visitCount > 1 && session.timeOfDay == 1
	user.plan == 'pro || trial' || debug.enabled == true

Operands are compared numerically when both sides parse as numbers, as booleans when the
literal is true/false, and as strings otherwise (ordering operators on strings are false).
A path missing from the store is undefined: every comparison against it is false except !=.
Malformed expressions evaluate to false; Check exposes the underlying error.
*/
package condition

/*
Package sequence loads, validates and caches conversation scripts.

A sequence document is JSON or YAML:

	sequenceId: welcome
	name: Welcome
	messages:
	  - id: 1
	    type: text
	    text: "Hi {user.name|there}!|||Good to see you."
	    nextMessageId: 2
	  - id: 2
	    type: choice
	    text: Ready?
	    storeKey: user.ready
	    choices:
	      - text: "Yes"
	        nextMessageId: 3
	      - text: Later
	        sequenceId: goodbye

Documents are decoded into a generic map first and then mapped onto domain.Sequence,
which lets both formats share one schema (the json field names).
*/
package sequence

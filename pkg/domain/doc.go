/*
Package domain contains the core domain models of the parley conversation engine.

It defines the dialogue graph (Sequences made of Messages), the side effects a script can
request (DataActions and TriggerEvents) and the outcome of one walk through a script
(TraversalResult). This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Sequence: a named, ordered graph of Message nodes forming one conversational script.
  - Message: a node in the graph (text, choice, textInput, autoroute or dataAction).
  - DataAction: an instruction applied against the key/value store (set, increment, ...).
  - TraversalResult: the ordered batch of messages produced by one traversal and why it stopped.
  - ScriptError: the typed error taxonomy used at the loading and traversal boundaries.
*/
package domain

/*
Package delivery paces traversal output to a consumer.

A Queue delivers batches of messages one at a time, waiting each message's delay first.
Overlapping Enqueue calls for the same queue never interleave: batches are delivered in
the order the calls arrived. Closing the queue or cancelling the context stops delivery
mid-delay; whatever was delivered up to that point stays delivered.

A Dispatcher keeps one Queue per consumer id, so different consumers never wait on each
other while each consumer still sees its batches in order.
*/
package delivery

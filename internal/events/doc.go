// Package events provides in-process fan-out of dashboard events.
//
// Anything noteworthy that happens to the fleet (a status change, an
// access attempt, an alert, a registration) is published to the
// broadcaster, which copies it to every live subscriber. Subscribers
// are the HTTP event stream connections; each gets a buffered channel
// and a slow subscriber is dropped rather than allowed to stall the
// rest.
package events

// Package api translates HTTP requests into calls on the deck, card,
// session and user services, and their results and errors back into JSON
// responses. Every handler expects the trace middleware to have run;
// everything except the auth endpoints also expects the auth middleware.
package api

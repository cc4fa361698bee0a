// Package transport exposes bound forms to client-side select widgets over
// net/http.
//
// Every route answers with a JSON object carrying a "data" member. The
// option, search and label routes return the {value, label} records select
// widgets consume; the view route returns the resolved form with widgets
// assigned; the action route runs a field action and returns the new state.
// Forms are built per request by the configured FormFactory.
package transport

// Package session drives interactive review sessions over a deck subtree.
//
// A session is keyed by user and root deck. Starting one loads every due
// card in the subtree, earliest due first. Each answer is committed in its
// own transaction, then the due set is reloaded from storage and merged
// with the previous order. A card answered but still due moves behind the
// others so it is never served twice in a row while other cards wait.
//
// Session state is only an ordering hint. Everything that matters lives on
// the cards, so a lost or expired session is rebuilt from storage.
package session

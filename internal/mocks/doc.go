// Package mocks provides function-field test doubles for the service
// interfaces, shared by the handler and middleware tests.
//
// Each mock has one Fn field per method. A nil Fn falls back to the mock's
// default fields, so simple tests only set what they assert on:
//
//	sessions := &mocks.MockSessionService{
//	    StartSessionFn: func(ctx context.Context, userID, deckID uuid.UUID) (*session.View, error) {
//	        return nil, session.ErrNoCardsDue
//	    },
//	}
package mocks

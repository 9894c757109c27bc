// Package entity implements the image entity and its load state machine.
//
// An ImageEntity stands for one photo of a gallery. Its identity is a pure
// function of the source URL, computed once at construction. Loading moves
// the entity through
//
//	NotLoaded -> Loading -> Ready | Failed
//	Loading <-> Paused
//	Failed -> Loading (explicit BeginLoad only)
//
// All methods must be called on the control thread of the Loader's queue.
// Transport completions are posted back onto that queue before any state is
// touched, so observers see every transition on the control thread, in order,
// and before the new state is stored.
package entity

// Package draft implements copy-on-write drafts over value snapshots.
//
// A reducer receives a *Draft and writes to it as if the state were plain
// mutable data. Finalize turns the draft into a new snapshot that shares
// every untouched container with the base by pointer, so identity checks
// (value.Same) are enough to tell what changed.
//
//	next, changed, err := draft.Produce(state, func(d *draft.Draft) error {
//	    items, err := d.Child("items")
//	    if err != nil {
//	        return err
//	    }
//	    return items.Push(value.String("pen"))
//	})
package draft

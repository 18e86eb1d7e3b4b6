// Package model implements ripple's reactive core: model definitions,
// instances, the per-manager scheduler, view memoization and the plugin
// chain.
//
// A Manager is one logical execution thread. Dispatches serialize on it
// turn by turn; listeners are notified once, after the outermost turn that
// changed something ends. Within a turn, a dispatch whose context carries
// the turn (a reducer's d.Dispatch, an action's ac.Dispatch, anything
// inside Manager.Batch) runs inline.
//
// Two plain Dispatch calls made one after the other are two turns and
// notify listeners twice. To share one notification, group them with
// Batch or dispatch from inside an action or reducer. Each Suspend also
// ends a tick, so an action flushes before every suspension.
package model

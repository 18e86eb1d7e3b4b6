// Package testutil holds fixtures shared by package tests and the
// scenario harness: a silent logger, a counter model, and a listener that
// counts notifications.
package testutil

//go:build debug

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

// Invariant violations panic instead of returning errors.
const debug = true

//go:build !debug

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

const debug = false

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package skeleton

import "errors"

var ErrInvalidGeometry = errors.New("invalid geometry")
var ErrEmptySkeleton = errors.New("empty skeleton")

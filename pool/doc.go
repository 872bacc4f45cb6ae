// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-capacity slot storage with stable integer keys.
// Freed keys are recycled in FIFO order, never-used keys are handed out first.
package pool

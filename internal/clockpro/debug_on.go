//go:build clockpro_debug

package clockpro

// debugAssert panics with msg when cond is false. Compiled in only under
// -tags clockpro_debug; production builds pay nothing for it, per spec §7's
// "debug-mode assertions check list/index consistency; production behavior
// on such an event is undefined."
func debugAssert(cond bool, msg string) {
	if !cond {
		panic("clockpro: invariant violated: " + msg)
	}
}

//go:build !clockpro_debug

package clockpro

func debugAssert(bool, string) {}

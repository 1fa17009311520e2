//go:build !linux && !windows

package idle

func newProvider() Provider {
	return unsupportedProvider{}
}

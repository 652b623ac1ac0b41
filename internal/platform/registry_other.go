//go:build !windows

package platform

import "context"

// RegistryInterpreters always reports nothing outside Windows.
func RegistryInterpreters(context.Context) ([]RegistryInterpreter, error) {
	return nil, nil
}

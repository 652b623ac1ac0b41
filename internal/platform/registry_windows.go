//go:build windows

package platform

import (
	"context"
	"errors"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const pythonKey = `Software\Python`

// RegistryInterpreters enumerates PEP 514 entries from HKCU and HKLM.
// Keys that cannot be opened are skipped.
func RegistryInterpreters(ctx context.Context) ([]RegistryInterpreter, error) {
	var out []RegistryInterpreter
	for _, root := range []registry.Key{registry.CURRENT_USER, registry.LOCAL_MACHINE} {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		found, err := readCompanies(root)
		if err != nil {
			if errors.Is(err, registry.ErrNotExist) {
				continue
			}
			return out, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func readCompanies(root registry.Key) ([]RegistryInterpreter, error) {
	key, err := registry.OpenKey(root, pythonKey, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	companies, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil, err
	}

	var out []RegistryInterpreter
	for _, company := range companies {
		out = append(out, readTags(key, company)...)
	}
	return out, nil
}

func readTags(parent registry.Key, company string) []RegistryInterpreter {
	key, err := registry.OpenKey(parent, company, registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return nil
	}
	defer key.Close()

	tags, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return nil
	}

	var out []RegistryInterpreter
	for _, tag := range tags {
		path := readInstallPath(key, tag)
		if path == "" {
			continue
		}
		out = append(out, RegistryInterpreter{InterpreterPath: path, DistroOrgName: company})
	}
	return out
}

func readInstallPath(parent registry.Key, tag string) string {
	key, err := registry.OpenKey(parent, tag+`\InstallPath`, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer key.Close()

	if exe, _, err := key.GetStringValue("ExecutablePath"); err == nil && exe != "" {
		return exe
	}
	dir, _, err := key.GetStringValue("")
	if err != nil || dir == "" {
		return ""
	}
	return filepath.Join(dir, "python.exe")
}

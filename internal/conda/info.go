package conda

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedInfo is returned when `conda info --json` output is not a JSON
// object.
var ErrMalformedInfo = errors.New("malformed conda info output")

// Info is the subset of `conda info --json` this package relies on. Every
// field is optional; an empty value means conda did not report it.
type Info struct {
	Envs          []string `json:"envs,omitempty"`
	EnvsDirs      []string `json:"envs_dirs,omitempty"`
	SysVersion    string   `json:"sys.version,omitempty"`
	SysPrefix     string   `json:"sys.prefix,omitempty"`
	PythonVersion string   `json:"python_version,omitempty"`
	DefaultPrefix string   `json:"default_prefix,omitempty"`
	RootPrefix    string   `json:"root_prefix,omitempty"`
	CondaVersion  string   `json:"conda_version,omitempty"`
}

// ParseInfo decodes `conda info --json` output. Fields that are missing or
// carry an unexpected type are left empty; only output that contains no JSON
// object at all is an error.
func ParseInfo(data []byte) (Info, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return Info{}, err
	}

	var info Info
	decodeField(fields, "envs", &info.Envs)
	decodeField(fields, "envs_dirs", &info.EnvsDirs)
	decodeField(fields, "sys.version", &info.SysVersion)
	decodeField(fields, "sys.prefix", &info.SysPrefix)
	decodeField(fields, "python_version", &info.PythonVersion)
	decodeField(fields, "default_prefix", &info.DefaultPrefix)
	decodeField(fields, "root_prefix", &info.RootPrefix)
	decodeField(fields, "conda_version", &info.CondaVersion)
	return info, nil
}

// decodeObject reads a top-level JSON object. Conda plugins sometimes print
// banners around the JSON document, so when the whole output does not decode
// the outermost braces are tried on their own.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil && fields != nil {
		return fields, nil
	}

	start := bytes.IndexByte(data, '{')
	end := bytes.LastIndexByte(data, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedInfo)
	}
	fields = nil
	if err := json.Unmarshal(data[start:end+1], &fields); err != nil || fields == nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInfo, err)
	}
	return fields, nil
}

func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

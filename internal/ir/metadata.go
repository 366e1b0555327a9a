package ir

import (
	"encoding/json"
	"fmt"
)

// ElementMetadata holds the engine-specific fields attached to a CodeElement. Known keys are
// typed fields; anything else survives in Extra. Nil (or empty, for Visibility) fields are
// omitted from the JSON object.
type ElementMetadata struct {
	// Python engine
	IsAsync           *bool
	Decorators        []string
	ArgCount          *int
	HasDocstring      *bool
	DocstringTokens   *int
	BaseClasses       []string
	Methods           []string
	IsConstant        *bool
	HasTypeAnnotation *bool

	// Rust engine
	IsPublic         *bool
	Visibility       string
	HasDocumentation *bool
	DocTokens        *int

	Extra map[string]any
}

func (m *ElementMetadata) fields() []metaField {
	return []metaField{
		{"is_async", &m.IsAsync, m.IsAsync != nil},
		{"decorators", &m.Decorators, m.Decorators != nil},
		{"arg_count", &m.ArgCount, m.ArgCount != nil},
		{"has_docstring", &m.HasDocstring, m.HasDocstring != nil},
		{"docstring_tokens", &m.DocstringTokens, m.DocstringTokens != nil},
		{"base_classes", &m.BaseClasses, m.BaseClasses != nil},
		{"methods", &m.Methods, m.Methods != nil},
		{"is_constant", &m.IsConstant, m.IsConstant != nil},
		{"has_type_annotation", &m.HasTypeAnnotation, m.HasTypeAnnotation != nil},
		{"is_public", &m.IsPublic, m.IsPublic != nil},
		{"visibility", &m.Visibility, m.Visibility != ""},
		{"has_documentation", &m.HasDocumentation, m.HasDocumentation != nil},
		{"doc_tokens", &m.DocTokens, m.DocTokens != nil},
	}
}

func (m ElementMetadata) MarshalJSON() ([]byte, error) {
	return marshalMeta(m.fields(), m.Extra)
}

func (m *ElementMetadata) UnmarshalJSON(data []byte) error {
	*m = ElementMetadata{}
	extra, err := unmarshalMeta(data, m.fields())
	if err != nil {
		return fmt.Errorf("element metadata: %w", err)
	}
	m.Extra = extra
	return nil
}

// FileMetadata holds file-level facts reported by an engine.
type FileMetadata struct {
	HasMainCheck    *bool
	ModuleDocstring *string
	HasMainFn       *bool
	IsLibRs         *bool
	IsMainRs        *bool
	PackageName     *string
	PackageVersion  *string
	IsLockfile      *bool
	LockfileVersion *int

	Extra map[string]any
}

func (m *FileMetadata) fields() []metaField {
	return []metaField{
		{"has_main_check", &m.HasMainCheck, m.HasMainCheck != nil},
		{"module_docstring", &m.ModuleDocstring, m.ModuleDocstring != nil},
		{"has_main_fn", &m.HasMainFn, m.HasMainFn != nil},
		{"is_lib_rs", &m.IsLibRs, m.IsLibRs != nil},
		{"is_main_rs", &m.IsMainRs, m.IsMainRs != nil},
		{"package_name", &m.PackageName, m.PackageName != nil},
		{"package_version", &m.PackageVersion, m.PackageVersion != nil},
		{"is_lockfile", &m.IsLockfile, m.IsLockfile != nil},
		{"lockfile_version", &m.LockfileVersion, m.LockfileVersion != nil},
	}
}

func (m FileMetadata) MarshalJSON() ([]byte, error) {
	return marshalMeta(m.fields(), m.Extra)
}

func (m *FileMetadata) UnmarshalJSON(data []byte) error {
	*m = FileMetadata{}
	extra, err := unmarshalMeta(data, m.fields())
	if err != nil {
		return fmt.Errorf("file metadata: %w", err)
	}
	m.Extra = extra
	return nil
}

// metaField binds a JSON key to the address of a struct field.
type metaField struct {
	key     string
	ptr     any
	present bool
}

func marshalMeta(fields []metaField, extra map[string]any) ([]byte, error) {
	obj := make(map[string]any, len(fields)+len(extra))
	for k, v := range extra {
		obj[k] = v
	}
	for _, f := range fields {
		if f.present {
			obj[f.key] = f.ptr
		}
	}
	return json.Marshal(obj)
}

func unmarshalMeta(data []byte, fields []metaField) (map[string]any, error) {
	if string(data) == "null" {
		return nil, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			continue
		}
		delete(raw, f.key)
		if string(v) == "null" {
			continue
		}
		if err := json.Unmarshal(v, f.ptr); err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	extra := make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		extra[k] = val
	}
	return extra, nil
}

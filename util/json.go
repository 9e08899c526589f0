// util/json.go
// Copyright(c) 2022-2026 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

///////////////////////////////////////////////////////////////////////////
// JSON

// DuplicateJSONKey represents a duplicate key found in JSON.
type DuplicateJSONKey struct {
	Path string // JSON path to the duplicate (e.g., "limits.bank")
	Key  string
}

// FindDuplicateJSONKeys scans JSON content and returns all duplicate keys
// found. encoding/json silently keeps the last value for a repeated key,
// which hides typos in hand-edited configuration files.
func FindDuplicateJSONKeys(data []byte) []DuplicateJSONKey {
	dec := json.NewDecoder(bytes.NewReader(data))
	var duplicates []DuplicateJSONKey

	type level struct {
		object    bool
		seen      map[string]bool
		expectKey bool
		keyed     bool // this container is the value of a key in its parent
	}
	var stack []level
	var path []string

	// valueDone is called after a complete value has been read in the
	// current container.
	valueDone := func() {
		if n := len(stack); n > 0 && stack[n-1].object {
			stack[n-1].expectKey = true
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}

		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				keyed := len(stack) > 0 && stack[len(stack)-1].object
				stack = append(stack, level{
					object:    v == '{',
					seen:      make(map[string]bool),
					expectKey: v == '{',
					keyed:     keyed,
				})
			case '}', ']':
				keyed := stack[len(stack)-1].keyed
				stack = stack[:len(stack)-1]
				if keyed {
					valueDone()
				}
			}
		case string:
			if n := len(stack); n > 0 && stack[n-1].object && stack[n-1].expectKey {
				top := &stack[n-1]
				if top.seen[v] {
					duplicates = append(duplicates, DuplicateJSONKey{Path: strings.Join(path, "."), Key: v})
				}
				top.seen[v] = true
				top.expectKey = false
				path = append(path, v)
			} else {
				valueDone()
			}
		default:
			valueDone()
		}
	}

	return duplicates
}

func UnmarshalJSON[T any](r io.Reader, out *T) error {
	// Unfortunately we need the contents as an array of bytes so that we
	// can issue reasonable errors.
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return UnmarshalJSONBytes(b, out)
}

// Unmarshal the bytes into the given type but go through some efforts to
// return useful error messages when the JSON is invalid...
func UnmarshalJSONBytes[T any](b []byte, out *T) error {
	err := json.Unmarshal(b, out)
	if err == nil {
		return nil
	}

	decodeOffset := func(offset int64) (line, char int) {
		line, char = 1, 1
		for i := 0; i < int(offset) && i < len(b); i++ {
			if b[i] == '\n' {
				line++
				char = 1
			} else {
				char++
			}
		}
		return
	}

	switch jerr := err.(type) {
	case *json.SyntaxError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %v", line, char, jerr)

	case *json.UnmarshalTypeError:
		line, char := decodeOffset(jerr.Offset)
		return fmt.Errorf("Error at line %d, character %d: %s value for %s.%s invalid for type %s",
			line, char, jerr.Value, jerr.Struct, jerr.Field, jerr.Type.String())

	default:
		return err
	}
}

// CheckJSON reports duplicate keys in contents and object members that
// do not correspond to a field of T (most often misspellings).
func CheckJSON[T any](contents []byte, e *ErrorLogger) {
	for _, dup := range FindDuplicateJSONKeys(contents) {
		if dup.Path != "" {
			e.ErrorString("%s: key %q is repeated", dup.Path, dup.Key)
		} else {
			e.ErrorString("key %q is repeated", dup.Key)
		}
	}

	var items any
	if err := UnmarshalJSONBytes(contents, &items); err != nil {
		e.Error(err)
		return
	}
	checkFields(items, reflect.TypeOf((*T)(nil)).Elem(), e)
}

func checkFields(v any, ty reflect.Type, e *ErrorLogger) {
	for ty.Kind() == reflect.Pointer {
		ty = ty.Elem()
	}

	switch ty.Kind() {
	case reflect.Slice, reflect.Array:
		if items, ok := v.([]any); ok {
			for _, item := range items {
				checkFields(item, ty.Elem(), e)
			}
		}

	case reflect.Struct:
		m, ok := v.(map[string]any)
		if !ok {
			return
		}
		fields := make(map[string]reflect.Type)
		for _, field := range reflect.VisibleFields(ty) {
			if jtag, ok := field.Tag.Lookup("json"); ok {
				name, _, _ := strings.Cut(jtag, ",")
				fields[name] = field.Type
			}
		}
		for k, item := range m {
			if fty, ok := fields[k]; ok {
				e.Push(k)
				checkFields(item, fty, e)
				e.Pop()
			} else {
				e.ErrorString("The entry %q is not an expected JSON object. Is it misspelled?", k)
			}
		}
	}
}

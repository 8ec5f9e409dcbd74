package compileopts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sqlite3src/internal/foundation/normalization"
)

// Define is a single preprocessor definition.
type Define struct {
	Name  string
	Value string // empty for a bare definition
}

// Flag renders the define as a compiler flag.
func (d Define) Flag() string {
	if d.Value == "" {
		return "-D" + d.Name
	}
	return "-D" + d.Name + "=" + d.Value
}

func (d Define) String() string {
	return strings.TrimPrefix(d.Flag(), "-D")
}

// Settings is a validated set of compile-time options. The zero value is empty
// and ready to use; values are stored in canonical form.
type Settings struct {
	values map[Key]int
}

// New returns an empty settings set.
func New() *Settings {
	return &Settings{values: map[Key]int{}}
}

// Default returns the option set the bundled library is built with. debug
// additionally enables SQLITE_DEBUG and SQLITE_ENABLE_API_ARMOR.
func Default(debug bool) *Settings {
	s := New()
	defaults := map[Key]string{
		"synchronous":                              "full",
		"wal_synchronous":                          "normal",
		"threading":                                "multi-thread",
		"double_quoted_strings":                    "none",
		"default_foreign_keys":                     "true",
		"default_memory_status":                    "false",
		"enable_alloca":                            "true",
		"enable_authorization":                     "false",
		"enable_automatic_index":                   "true",
		"enable_automatic_initialize":              "true",
		"enable_automatic_reset":                   "false",
		"enable_blob_io":                           "false",
		"enable_column_declared_type":              "false",
		"enable_database_pages_virtual_table":      "false",
		"enable_database_statistics_virtual_table": "false",
		"enable_database_uri":                      "true",
		"enable_deprecated":                        "false",
		"enable_get_table":                         "false",
		"enable_memory_management":                 "true",
		"enable_progress_callback":                 "false",
		"enable_shared_cache":                      "false",
		"enable_trace":                             "false",
		"enable_utf16":                             "false",
		"enable_virtual_tables":                    "true",
		"enable_write_ahead_log":                   "true",
		"like_operator_matches_blob":               "false",
		"max_expression_depth":                     "0",
	}
	if debug {
		defaults["enable_api_armor"] = "true"
		defaults["debug"] = "true"
	}
	for k, v := range defaults {
		if err := s.Set(string(k), v); err != nil {
			panic(fmt.Sprintf("compileopts: invalid default %s=%s: %v", k, v, err))
		}
	}
	return s
}

// Set validates raw and stores it under key.
func (s *Settings) Set(key, raw string) error {
	if s.values == nil {
		s.values = map[Key]int{}
	}
	k := Key(normalization.Key(key))
	opt, ok := registry[k]
	if !ok {
		return fmt.Errorf("unknown compile option %q", key)
	}
	v, err := parseValue(opt, raw)
	if err != nil {
		return fmt.Errorf("compile option %s: %w", k, err)
	}
	s.values[k] = v
	return nil
}

// Apply sets every entry of overrides, stopping at the first invalid one.
// Keys are applied in sorted order so the reported error is stable.
func (s *Settings) Apply(overrides map[string]string) error {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := s.Set(k, overrides[k]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the canonical integer value of key (booleans are 0 or 1).
func (s *Settings) Get(key Key) (int, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Len reports the number of configured options.
func (s *Settings) Len() int {
	return len(s.values)
}

// Defines renders the settings as preprocessor definitions sorted by name.
func (s *Settings) Defines() []Define {
	var defines []Define
	for k, v := range s.values {
		opt := registry[k]
		switch opt.kind {
		case kindSet, kindNumber, kindEnum:
			for _, m := range opt.macros {
				defines = append(defines, Define{Name: m, Value: strconv.Itoa(v)})
			}
		case kindEnable:
			if v != 0 {
				for _, m := range opt.macros {
					defines = append(defines, Define{Name: m})
				}
			}
		case kindOmit:
			if v == 0 {
				for _, m := range opt.macros {
					defines = append(defines, Define{Name: m})
				}
			}
		}
	}
	sort.Slice(defines, func(i, j int) bool { return defines[i].Name < defines[j].Name })
	return defines
}

// Flags renders Defines as compiler flags.
func (s *Settings) Flags() []string {
	defines := s.Defines()
	flags := make([]string, len(defines))
	for i, d := range defines {
		flags[i] = d.Flag()
	}
	return flags
}

func parseValue(opt option, raw string) (int, error) {
	switch opt.kind {
	case kindEnum:
		return opt.enum.NormalizeWithError(raw)
	case kindNumber:
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("expected a non-negative integer, got %q", raw)
		}
		return n, nil
	default:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return 0, fmt.Errorf("expected a boolean, got %q", raw)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	}
}

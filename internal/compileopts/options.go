package compileopts

import (
	"sort"

	"git.home.luguber.info/inful/sqlite3src/internal/foundation/normalization"
)

// Key identifies a compile-time option.
type Key string

type kind int

const (
	kindSet kind = iota
	kindEnable
	kindOmit
	kindNumber
	kindEnum
)

type option struct {
	key    Key
	kind   kind
	macros []string
	enum   *normalization.Normalizer[int]
}

var (
	threadingModes = normalization.NewNormalizer("threading mode", map[string]int{
		"single-thread": 0,
		"multi-thread":  1,
		"serialized":    2,
	}, 1)
	synchronousModes = normalization.NewNormalizer("synchronous mode", map[string]int{
		"off":    0,
		"normal": 1,
		"full":   2,
		"extra":  3,
	}, 2)
	temporaryStorageModes = normalization.NewNormalizer("temporary storage mode", map[string]int{
		"always-filesystem":  0,
		"default-filesystem": 1,
		"default-memory":     2,
		"always-memory":      3,
	}, 1)
	// Bit 0 allows double-quoted strings in DML, bit 1 in DDL.
	doubleQuotedStringModes = normalization.NewNormalizer("double-quoted strings mode", map[string]int{
		"none": 0,
		"dml":  1,
		"ddl":  2,
		"all":  3,
	}, 0)
)

var registry = map[Key]option{}

func register(o option) {
	registry[o.key] = o
}

func enumOption(key Key, macro string, n *normalization.Normalizer[int]) {
	register(option{key: key, kind: kindEnum, macros: []string{macro}, enum: n})
}

func setOption(key Key, macro string) {
	register(option{key: key, kind: kindSet, macros: []string{macro}})
}

func enableOption(key Key, macros ...string) {
	register(option{key: key, kind: kindEnable, macros: macros})
}

func omitOption(key Key, macro string) {
	register(option{key: key, kind: kindOmit, macros: []string{macro}})
}

func numberOption(key Key, macro string) {
	register(option{key: key, kind: kindNumber, macros: []string{macro}})
}

func init() {
	enumOption("threading", "SQLITE_THREADSAFE", threadingModes)
	enumOption("synchronous", "SQLITE_DEFAULT_SYNCHRONOUS", synchronousModes)
	enumOption("wal_synchronous", "SQLITE_DEFAULT_WAL_SYNCHRONOUS", synchronousModes)
	enumOption("temporary_storage", "SQLITE_TEMP_STORE", temporaryStorageModes)
	enumOption("double_quoted_strings", "SQLITE_DQS", doubleQuotedStringModes)

	setOption("default_automatic_index", "SQLITE_DEFAULT_AUTOMATIC_INDEX")
	setOption("default_automatic_vacuum", "SQLITE_DEFAULT_AUTOVACUUM")
	setOption("default_foreign_keys", "SQLITE_DEFAULT_FOREIGN_KEYS")
	setOption("default_memory_status", "SQLITE_DEFAULT_MEMSTATUS")
	setOption("enable_database_uri", "SQLITE_USE_URI")
	setOption("trusted_schema", "SQLITE_TRUSTED_SCHEMA")

	enableOption("debug", "SQLITE_DEBUG")
	enableOption("enable_alloca", "SQLITE_USE_ALLOCA")
	enableOption("enable_api_armor", "SQLITE_ENABLE_API_ARMOR")
	enableOption("enable_column_metadata", "SQLITE_ENABLE_COLUMN_METADATA")
	enableOption("enable_database_pages_virtual_table", "SQLITE_ENABLE_DBPAGE_VTAB")
	enableOption("enable_database_statistics_virtual_table", "SQLITE_ENABLE_DBSTAT_VTAB")
	enableOption("enable_fts3", "SQLITE_ENABLE_FTS3", "SQLITE_ENABLE_FTS3_PARENTHESIS")
	enableOption("enable_fts5", "SQLITE_ENABLE_FTS5")
	enableOption("enable_geopoly", "SQLITE_ENABLE_GEOPOLY")
	enableOption("enable_memory_management", "SQLITE_ENABLE_MEMORY_MANAGEMENT")
	enableOption("enable_normalize_sql", "SQLITE_ENABLE_NORMALIZE")
	enableOption("enable_pre_update_hook", "SQLITE_ENABLE_PREUPDATE_HOOK")
	enableOption("enable_rtree", "SQLITE_ENABLE_RTREE")
	enableOption("enable_session", "SQLITE_ENABLE_SESSION")
	enableOption("enable_snapshot", "SQLITE_ENABLE_SNAPSHOT")
	enableOption("enable_soundex", "SQLITE_SOUNDEX")
	enableOption("enable_stat4", "SQLITE_ENABLE_STAT4")
	enableOption("like_operator_case_sensitive", "SQLITE_CASE_SENSITIVE_LIKE")
	enableOption("secure_delete", "SQLITE_SECURE_DELETE")

	omitOption("enable_authorization", "SQLITE_OMIT_AUTHORIZATION")
	omitOption("enable_automatic_index", "SQLITE_OMIT_AUTOMATIC_INDEX")
	omitOption("enable_automatic_initialize", "SQLITE_OMIT_AUTOINIT")
	omitOption("enable_automatic_reset", "SQLITE_OMIT_AUTORESET")
	omitOption("enable_blob_io", "SQLITE_OMIT_INCRBLOB")
	omitOption("enable_column_declared_type", "SQLITE_OMIT_DECLTYPE")
	omitOption("enable_deprecated", "SQLITE_OMIT_DEPRECATED")
	omitOption("enable_get_table", "SQLITE_OMIT_GET_TABLE")
	omitOption("enable_json", "SQLITE_OMIT_JSON")
	omitOption("enable_load_extension", "SQLITE_OMIT_LOAD_EXTENSION")
	omitOption("enable_progress_callback", "SQLITE_OMIT_PROGRESS_CALLBACK")
	omitOption("enable_serialize", "SQLITE_OMIT_DESERIALIZE")
	omitOption("enable_shared_cache", "SQLITE_OMIT_SHARED_CACHE")
	omitOption("enable_tcl_variables", "SQLITE_OMIT_TCL_VARIABLE")
	omitOption("enable_temporary_database", "SQLITE_OMIT_TEMPDB")
	omitOption("enable_trace", "SQLITE_OMIT_TRACE")
	omitOption("enable_utf16", "SQLITE_OMIT_UTF16")
	omitOption("enable_virtual_tables", "SQLITE_OMIT_VIRTUALTABLE")
	omitOption("enable_write_ahead_log", "SQLITE_OMIT_WAL")
	omitOption("like_operator_matches_blob", "SQLITE_LIKE_DOESNT_MATCH_BLOBS")

	numberOption("max_attached_databases", "SQLITE_MAX_ATTACHED")
	numberOption("max_columns", "SQLITE_MAX_COLUMN")
	numberOption("max_expression_depth", "SQLITE_MAX_EXPR_DEPTH")
	numberOption("max_json_depth", "SQLITE_JSON_MAX_DEPTH")
	numberOption("max_variables", "SQLITE_MAX_VARIABLE_NUMBER")
}

// Keys returns every known option key in sorted order.
func Keys() []Key {
	keys := make([]Key, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

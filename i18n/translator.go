package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for validation error codes.
// data provides values substituted for {placeholders} in the message (for
// example "expected", "field" or "uri").
type Translator interface {
	Message(code string, data map[string]string) string
}

var catalogue = map[string]map[string]string{
	"en": {
		"invalid_type":            "Expected a {expected} but got {actual}",
		"invalid_enum":            "Expected one of {symbols}",
		"expected_null":           "Expected null",
		"expected_non_null":       "Expected non-null",
		"expected_list":           "Expected a list",
		"expected_mapping":        "Expected a mapping but got {actual}",
		"union_mismatch":          "tried `{name}` but",
		"array_item":              "array item {index} is invalid because:",
		"map_entry":               "the `{key}` entry is not valid because:",
		"no_map_predicate":        "No mapPredicate was specified.",
		"key_collision":           "the `{key}` entry already has a `{field}` field",
		"secondary_files":         "Expected a string or sequence of (strings or mappings).",
		"secondary_files_pattern": "Missing 'pattern' in secondaryFiles specification entry.",
		"secondary_files_extra":   "Unallowed values in secondaryFiles specification entry.",
		"unknown_term":            "Term `{term}` not in vocabulary",
		"undefined_reference":     "contains undefined reference to `{uri}`",
		"required":                "missing required field `{field}`",
		"invalid_field":           "the `{field}` field is not valid because:",
		"unknown_field":           "invalid field `{field}`, expected one of: {fields}",
		"record":                  "Trying `{name}`",
		"class_mismatch":          "Expected class `{expected}` but got `{actual}`",
		"directive":               "`{directive}` must be {expected}",
		"document_shape":          "Expected URI string, mapping or sequence but got {actual}",
		"relative_uri":            "URI or base URL need to contain a path",
		"save_uri":                "Expected a URI string or list of URI strings but got {actual}",
		"import":                  "cannot resolve `{directive}` without a file URI",
		"import_cycle":            "recursive $import of `{uri}`",
		"duplicate_id":            "Duplicate id `{id}`",
	},
	"ja": {
		"invalid_type":            "{expected} が必要ですが {actual} でした",
		"invalid_enum":            "{symbols} のいずれかが必要です",
		"expected_null":           "null が必要です",
		"expected_non_null":       "null 以外の値が必要です",
		"expected_list":           "リストが必要です",
		"expected_mapping":        "マッピングが必要ですが {actual} でした",
		"union_mismatch":          "`{name}` を試しましたが",
		"array_item":              "配列要素 {index} が不正です:",
		"map_entry":               "エントリ `{key}` が不正です:",
		"no_map_predicate":        "mapPredicate が指定されていません。",
		"key_collision":           "エントリ `{key}` には既に `{field}` フィールドがあります",
		"secondary_files":         "文字列、または文字列かマッピングのシーケンスが必要です。",
		"secondary_files_pattern": "secondaryFiles の指定に 'pattern' がありません。",
		"secondary_files_extra":   "secondaryFiles の指定に許可されていない値があります。",
		"unknown_term":            "用語 `{term}` は語彙にありません",
		"undefined_reference":     "未定義の参照 `{uri}` を含んでいます",
		"required":                "必須フィールド `{field}` がありません",
		"invalid_field":           "フィールド `{field}` が不正です:",
		"unknown_field":           "不正なフィールド `{field}` です。有効なフィールド: {fields}",
		"record":                  "`{name}` として解析中",
		"class_mismatch":          "クラス `{expected}` が必要ですが `{actual}` でした",
		"directive":               "`{directive}` は {expected} である必要があります",
		"document_shape":          "URI 文字列、マッピング、シーケンスのいずれかが必要ですが {actual} でした",
		"relative_uri":            "URI とベース URL にはパスが必要です",
		"save_uri":                "URI 文字列または URI 文字列のリストが必要ですが {actual} でした",
		"import":                  "ファイル URI がないため `{directive}` を解決できません",
		"import_cycle":            "`{uri}` の $import が循環しています",
		"duplicate_id":            "id `{id}` が重複しています",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogue[t.lang][code]
	if !ok {
		msg, ok = catalogue["en"][code]
	}
	if !ok {
		return code
	}
	return expand(msg, data)
}

func expand(msg string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(msg, "{") {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T returns the message for code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}

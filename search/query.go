package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"
)

// Query is a paginated FT.SEARCH request.
type Query struct {
	Index  string
	Query  string
	Offset int
	Limit  int
	SortBy string
	Desc   bool
}

type Result struct {
	Total   int64
	Entries []Entry
}

type Entry struct {
	Key    string
	Fields map[string]string
}

// Search runs FT.SEARCH with LIMIT and an optional SORTBY.
func (s *Store) Search(ctx context.Context, q *Query) (*Result, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if q.Limit < 0 || q.Offset < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	args := []string{q.Index, q.Query}
	if q.SortBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}
	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &Error{Op: OpSearch, Err: err}
	}

	return parseSearchResult(raw)
}

func parseSearchResult(raw []rueidis.RedisMessage) (*Result, error) {
	if len(raw) == 0 {
		return &Result{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &Result{}, nil
	}

	entries := make([]Entry, 0, (len(raw)-1)/2)
	// [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &Result{Total: total, Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// MatchAll is the query that returns every document in an index.
const MatchAll = "*"

// BuildTextQuery turns free user text into an FT query over the text fields
// and the tags field. Empty input and "*" match every document.
func BuildTextQuery(text string, tagField string) string {
	text = strings.TrimSpace(text)
	if text == "" || text == MatchAll {
		return MatchAll
	}

	terms := strings.Fields(text)
	escaped := make([]string, 0, len(terms))
	for _, t := range terms {
		escaped = append(escaped, escapeQuery(t))
	}
	textPart := "(" + strings.Join(escaped, " ") + ")"
	if tagField == "" {
		return textPart
	}
	return fmt.Sprintf("%s | @%s:{%s}", textPart, tagField, escapeTag(text))
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`:`, `\:`,
	`+`, `\+`,
	`,`, `\,`,
	`.`, `\.`,
	`/`, `\/`,
)

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

package app

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tkopets/asyncdb/internal/query"
)

// ParseScript reads one command per line:
//
//	exec ID SQL...        one-time query
//	prepare ID SQL...     prepare and cache under ID
//	bind ID :name VALUE   bind a value to a prepared statement
//	run ID [RESULT_ID]    execute a prepared statement
//	SQL...                one-time query with id sql1, sql2, ...
//
// Blank lines and lines starting with "#" or "--" are skipped.
func ParseScript(r io.Reader) ([]query.Command, error) {
	var (
		cmds []query.Command
		bare int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "--") {
			continue
		}

		verb, rest := cut(line)
		switch strings.ToLower(verb) {
		case "exec":
			id, sql := cut(rest)
			if id == "" || sql == "" {
				return nil, fmt.Errorf("line %d: exec needs ID and SQL", n)
			}
			cmds = append(cmds, query.Execute{QueryID: id, SQL: sql})
		case "prepare":
			id, sql := cut(rest)
			if id == "" || sql == "" {
				return nil, fmt.Errorf("line %d: prepare needs ID and SQL", n)
			}
			cmds = append(cmds, query.Prepare{QueryID: id, SQL: sql})
		case "bind":
			id, rest := cut(rest)
			placeholder, raw := cut(rest)
			if id == "" || placeholder == "" || raw == "" {
				return nil, fmt.Errorf("line %d: bind needs ID PLACEHOLDER VALUE", n)
			}
			v, err := ParseValue(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			cmds = append(cmds, query.BindValue{QueryID: id, Placeholder: placeholder, Value: v})
		case "run":
			fields := strings.Fields(rest)
			if len(fields) == 0 || len(fields) > 2 {
				return nil, fmt.Errorf("line %d: run needs ID [RESULT_ID]", n)
			}
			cmd := query.ExecutePrepared{QueryID: fields[0]}
			if len(fields) == 2 {
				cmd.ResultID = fields[1]
			}
			cmds = append(cmds, cmd)
		default:
			bare++
			cmds = append(cmds, query.Execute{QueryID: "sql" + strconv.Itoa(bare), SQL: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// ParseValue turns a literal into a bind value: NULL, booleans, integers,
// floats, quoted strings; anything else is taken as a bare string.
func ParseValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(raw, "null"):
		return nil, nil
	case strings.EqualFold(raw, "true"):
		return true, nil
	case strings.EqualFold(raw, "false"):
		return false, nil
	case strings.HasPrefix(raw, `"`):
		s, err := strconv.Unquote(raw)
		if err != nil {
			return nil, fmt.Errorf("bad string literal %s: %w", raw, err)
		}
		return s, nil
	case len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'':
		return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'"), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f, nil
	}
	return raw, nil
}

// cut splits off the first whitespace separated word.
func cut(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}

package locparser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ReadJSONL reads records from a JSON Lines file: one object per line, keyed
// by the same column names as the CSV layout.
func ReadJSONL(path string, opts Options, onProgress func(count int)) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	if opts.Source == "" {
		opts.Source = path
	}
	return ParseJSONL(f, opts, onProgress)
}

// ParseJSONL reads JSON Lines data from r. Numbers may be JSON numbers or strings.
func ParseJSONL(r io.Reader, opts Options, onProgress func(count int)) (*ReadResult, error) {
	policy, err := ParsePolicy(string(opts.Policy))
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(newNullStripper(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	result := &ReadResult{}
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if opts.Limit > 0 && result.Count >= opts.Limit {
			break
		}

		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return nil, &MalformedRecordError{Row: lineNum, Field: "json", Value: truncate(line, 80), Err: err}
		}

		fields := jsonFields(raw)

		rec, mismatch, err := buildRecord(lineNum, fields, policy)
		if err != nil {
			return nil, err
		}
		if mismatch {
			result.flag(lineNum)
		}

		rec.Seq = int64(result.Count)
		result.Records = append(result.Records, rec)
		result.Count++

		if onProgress != nil && result.Count%10000 == 0 {
			onProgress(result.Count)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading file at line %d: %w", lineNum, err)
	}

	if result.Count == 0 {
		return nil, &EmptyDatasetError{Source: opts.Source}
	}
	return result, nil
}

// jsonFields maps an object's keys onto canonical field names. When several
// keys alias one field the canonical key wins, then the first in key order.
func jsonFields(raw map[string]any) map[string]string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make(map[string]string, len(raw))
	for _, k := range keys {
		col := strings.ToLower(strings.TrimSpace(k))
		name, ok := fieldAliases[col]
		if !ok {
			continue
		}
		if _, dup := fields[name]; dup && col != name {
			continue
		}
		fields[name] = strings.TrimSpace(jsonString(raw[k]))
	}
	return fields
}

// jsonString converts a decoded JSON value to the text a CSV cell would hold.
func jsonString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

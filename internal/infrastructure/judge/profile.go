package judge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"skill-radar/internal/domain/source"
)

// Judge mirrors disagree on field names; each value is read from the first present alias.
var (
	easyKeys   = []string{"easySolved", "totalEasy"}
	mediumKeys = []string{"mediumSolved", "totalMedium"}
	hardKeys   = []string{"hardSolved", "totalHard"}
	topicKeys  = []string{"tagStats", "topicStats", "tagProblemCounts"}
	countKeys  = []string{"solved", "problemsSolved", "count"}
)

type fields map[string]json.RawMessage

func (f fields) first(keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && !isNull(v) {
			return v, true
		}
	}
	return nil, false
}

func (f fields) int(keys ...string) (int, bool) {
	v, ok := f.first(keys)
	if !ok {
		return 0, false
	}
	return number(v)
}

func parseProfile(body []byte) (*source.JudgeRaw, error) {
	var f fields
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, fmt.Errorf("decode judge profile: %w", err)
	}

	if status, ok := f["status"]; ok {
		var s string
		if json.Unmarshal(status, &s) == nil && strings.EqualFold(s, "error") {
			msg := ""
			if m, ok := f["message"]; ok {
				_ = json.Unmarshal(m, &msg)
			}
			return nil, fmt.Errorf("%w: %s", ErrProfileError, msg)
		}
	}

	raw := &source.JudgeRaw{}
	raw.Easy, _ = f.int(easyKeys...)
	raw.Medium, _ = f.int(mediumKeys...)
	raw.Hard, _ = f.int(hardKeys...)
	if total, ok := f.int("totalSolved"); ok {
		raw.TotalSolved = &total
	}
	raw.Topics = parseTopics(f)
	return raw, nil
}

func parseTopics(f fields) []source.TopicCount {
	v, ok := f.first(topicKeys)
	if !ok {
		return nil
	}
	var entries []fields
	if err := json.Unmarshal(v, &entries); err != nil {
		return nil
	}

	out := make([]source.TopicCount, 0, len(entries))
	for _, e := range entries {
		var name string
		if n, ok := e["name"]; !ok || json.Unmarshal(n, &name) != nil {
			continue
		}
		solved, _ := e.int(countKeys...)
		out = append(out, source.TopicCount{Name: name, Solved: solved})
	}
	return out
}

// number accepts JSON numbers and numeric strings.
func number(v json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil {
			return int(f), true
		}
		return 0, false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func isNull(v json.RawMessage) bool {
	return len(bytes.TrimSpace(v)) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

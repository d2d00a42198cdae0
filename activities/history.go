package activities

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Text is a JSON string that also accepts numbers, as grade levels arrive as either.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

// HistoryItem is one previously generated activity.
type HistoryItem struct {
	ID          Text   `json:"id"`
	Title       string `json:"title"`
	Subject     string `json:"subject"`
	GradeLevel  Text   `json:"gradeLevel"`
	Difficulty  string `json:"difficulty,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
	PDFKey      string `json:"pdfKey,omitempty"`
	S3Key       string `json:"s3Key,omitempty"`
}

// DownloadKey is the object key of the item's PDF.
func (h HistoryItem) DownloadKey() string {
	if h.PDFKey != "" {
		return h.PDFKey
	}
	if h.S3Key != "" {
		return h.S3Key
	}
	return "homework-" + string(h.ID) + ".pdf"
}

// DisplayTitle falls back to "Untitled".
func (h HistoryItem) DisplayTitle() string {
	if h.Title == "" {
		return "Untitled"
	}
	return h.Title
}

// ShareRequest builds the request that publishes this item.
func (h HistoryItem) ShareRequest() ShareRequest {
	return ShareRequest{
		ItemID:     string(h.ID),
		Title:      h.Title,
		Subject:    h.Subject,
		GradeLevel: string(h.GradeLevel),
	}
}

// HistoryFilter narrows a history list. Empty fields match everything.
type HistoryFilter struct {
	Grade      string
	Subject    string
	SearchTerm string
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortConfig orders a history list by one field. An empty Key keeps API order.
type SortConfig struct {
	Key       string
	Direction SortDirection
}

// FilterAndSort returns the items matching filter, ordered by sortBy.
func FilterAndSort(items []HistoryItem, filter HistoryFilter, sortBy SortConfig) []HistoryItem {
	search := strings.ToLower(filter.SearchTerm)
	out := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		if filter.Grade != "" && string(item.GradeLevel) != filter.Grade {
			continue
		}
		if filter.Subject != "" && item.Subject != filter.Subject {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Subject), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		out = append(out, item)
	}

	if sortBy.Key == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		cmp := compareField(out[i], out[j], sortBy.Key)
		if sortBy.Direction == Descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return out
}

func compareField(a, b HistoryItem, key string) int {
	switch key {
	case "createdAt":
		return compareTimes(a.CreatedAt, b.CreatedAt)
	case "updatedAt":
		return compareTimes(a.UpdatedAt, b.UpdatedAt)
	case "gradeLevel":
		return compareNatural(string(a.GradeLevel), string(b.GradeLevel))
	case "title":
		return strings.Compare(a.Title, b.Title)
	case "subject":
		return strings.Compare(a.Subject, b.Subject)
	case "difficulty":
		return strings.Compare(a.Difficulty, b.Difficulty)
	default:
		return 0
	}
}

func compareTimes(a, b string) int {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ta.Compare(tb)
}

// compareNatural orders numeric grades numerically, anything else lexically.
func compareNatural(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// UniqueGrades returns the distinct grade levels, sorted.
func UniqueGrades(items []HistoryItem) []string {
	return unique(items, func(h HistoryItem) string { return string(h.GradeLevel) })
}

// UniqueSubjects returns the distinct subjects, sorted.
func UniqueSubjects(items []HistoryItem) []string {
	return unique(items, func(h HistoryItem) string { return h.Subject })
}

func unique(items []HistoryItem, field func(HistoryItem) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, item := range items {
		v := field(item)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// FormatDate renders an RFC 3339 timestamp for the history table.
func FormatDate(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}

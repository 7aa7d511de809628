package backend

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Query string keys shared by the HTTP server and the REST client.
//
//	page=2&pageSize=25&sort=name&dir=desc&searchColumn=name&search=ada
//	filter[status]=active&range[age][lo]=18&range[age][hi]=65
//
// A range bound may be empty for an open end. Bounds travel as separate
// keys so they can hold any text, commas included.
const (
	ParamPage         = "page"
	ParamPageSize     = "pageSize"
	ParamSort         = "sort"
	ParamDir          = "dir"
	ParamSearch       = "search"
	ParamSearchColumn = "searchColumn"
)

// EncodeQuery renders q as URL query parameters.
func EncodeQuery(q Query) url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set(ParamPage, strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set(ParamPageSize, strconv.Itoa(q.PageSize))
	}
	if q.Sort.Column != "" {
		v.Set(ParamSort, q.Sort.Column)
		if q.Sort.Ascending {
			v.Set(ParamDir, "asc")
		} else {
			v.Set(ParamDir, "desc")
		}
	}
	if q.SearchQuery != "" && q.SearchColumn != "" {
		v.Set(ParamSearchColumn, q.SearchColumn)
		v.Set(ParamSearch, q.SearchQuery)
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, col := range keys {
		value := q.Filters[col]
		if r, ok := AsRange(value); ok {
			v.Set("range["+col+"][lo]", formatParam(r.Lo))
			v.Set("range["+col+"][hi]", formatParam(r.Hi))
			continue
		}
		if IsBlank(value) {
			continue
		}
		v.Set("filter["+col+"]", formatParam(value))
	}
	return v
}

// DecodeQuery parses URL query parameters into a Query. Unset values are
// left zero; callers apply table defaults.
func DecodeQuery(v url.Values) (Query, error) {
	var q Query

	if s := v.Get(ParamPage); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return q, fmt.Errorf("invalid %s: %q", ParamPage, s)
		}
		q.Page = n
	}
	if s := v.Get(ParamPageSize); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid %s: %q", ParamPageSize, s)
		}
		q.PageSize = n
	}

	q.Sort.Column = v.Get(ParamSort)
	switch dir := strings.ToLower(v.Get(ParamDir)); dir {
	case "", "asc":
		q.Sort.Ascending = q.Sort.Column != ""
	case "desc":
	default:
		return q, fmt.Errorf("invalid %s: %q", ParamDir, dir)
	}

	q.SearchColumn = v.Get(ParamSearchColumn)
	q.SearchQuery = v.Get(ParamSearch)

	for key, vals := range v {
		if len(vals) == 0 {
			continue
		}
		if col, ok := bracketKey(key, "filter"); ok {
			if q.Filters == nil {
				q.Filters = make(map[string]any)
			}
			q.Filters[col] = vals[0]
			continue
		}
		if col, bound, ok := rangeKey(key); ok {
			if bound != "lo" && bound != "hi" {
				return q, fmt.Errorf("invalid range for %s: want range[%s][lo] and range[%s][hi]", col, col, col)
			}
			if q.Filters == nil {
				q.Filters = make(map[string]any)
			}
			r, ok := q.Filters[col].(Range)
			if !ok {
				r = Range{Lo: "", Hi: ""}
			}
			if bound == "lo" {
				r.Lo = vals[0]
			} else {
				r.Hi = vals[0]
			}
			q.Filters[col] = r
		}
	}

	return q, nil
}

// bracketKey extracts col from "prefix[col]".
func bracketKey(key, prefix string) (string, bool) {
	if !strings.HasPrefix(key, prefix+"[") || !strings.HasSuffix(key, "]") {
		return "", false
	}
	col := key[len(prefix)+1 : len(key)-1]
	return col, col != ""
}

// rangeKey extracts col and bound from "range[col][bound]". A key without
// a bound yields bound "".
func rangeKey(key string) (col, bound string, ok bool) {
	rest, found := strings.CutPrefix(key, "range[")
	if !found {
		return "", "", false
	}
	col, rest, found = strings.Cut(rest, "]")
	if !found || col == "" {
		return "", "", false
	}
	if rest == "" {
		return col, "", true
	}
	bound, found = strings.CutPrefix(rest, "[")
	if !found || !strings.HasSuffix(bound, "]") {
		return col, rest, true
	}
	return col, strings.TrimSuffix(bound, "]"), true
}

func formatParam(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

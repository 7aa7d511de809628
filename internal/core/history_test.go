package core

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestParseAuditFilter(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		want      AuditFilter
		wantField string
	}{
		{"defaults", "", AuditFilter{TableKey: "users", Limit: DefaultHistoryLimit}, ""},
		{"paging", "limit=10&offset=20", AuditFilter{TableKey: "users", Limit: 10, Offset: 20}, ""},
		{"clamped", "limit=9999&offset=-3", AuditFilter{TableKey: "users", Limit: MaxHistoryLimit}, ""},
		{"action", "action=delete", AuditFilter{TableKey: "users", Action: ActionDelete, Limit: DefaultHistoryLimit}, ""},
		{
			"since", "since=2026-01-02T03:04:05Z",
			AuditFilter{TableKey: "users", Since: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Limit: DefaultHistoryLimit}, "",
		},
		{"bad limit", "limit=ten", AuditFilter{}, "limit"},
		{"bad offset", "offset=x", AuditFilter{}, "offset"},
		{"bad since", "since=yesterday", AuditFilter{}, "since"},
		{"unknown action", "action=explode", AuditFilter{}, "action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			got, err := ParseAuditFilter("users", values.Get)
			if tt.wantField != "" {
				var valErr ValidationError
				if !errors.As(err, &valErr) || valErr.Field != tt.wantField {
					t.Errorf("error = %v, want ValidationError on %s", err, tt.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAuditFilter() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseAuditFilter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSeverityFor(t *testing.T) {
	tests := []struct {
		action AuditAction
		want   AuditSeverity
	}{
		{ActionInsert, SeverityLow},
		{ActionUpdate, SeverityMedium},
		{ActionDelete, SeverityHigh},
		{ActionBulkUpsert, SeverityHigh},
		{ActionMatchUpdate, SeverityHigh},
		{ActionBulkDelete, SeverityCritical},
	}
	for _, tt := range tests {
		if got := SeverityFor(tt.action); got != tt.want {
			t.Errorf("SeverityFor(%s) = %s, want %s", tt.action, got, tt.want)
		}
	}
}

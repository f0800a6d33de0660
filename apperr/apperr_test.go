package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestMessages(t *testing.T) {
	cases := []struct {
		err    *Error
		msg    string
		status int
	}{
		{MalformedRequest(errors.New("unexpected EOF")), "malformed request body", http.StatusBadRequest},
		{MissingField("path"), "missing path", http.StatusBadRequest},
		{MissingField("ip"), "missing ip", http.StatusBadRequest},
		{StoreWrite(errors.New("pq: relation \"page_views\" does not exist")), GenericMessage, http.StatusInternalServerError},
		{StoreRead(errors.New("connection refused")), GenericMessage, http.StatusInternalServerError},
		{NotFound(nil), "does not exist", http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := tc.err.Message(); got != tc.msg {
			t.Fatalf("%s Message: want=%q got=%q", tc.err.Kind, tc.msg, got)
		}
		if got := tc.err.Status(); got != tc.status {
			t.Fatalf("%s Status: want=%d got=%d", tc.err.Kind, tc.status, got)
		}
	}
}

func TestStoreMessageHidesCause(t *testing.T) {
	cause := errors.New("password authentication failed for user \"blog\"")
	e := StoreWrite(cause)
	if strings.Contains(e.Message(), "password") {
		t.Fatalf("Message leaked cause: %q", e.Message())
	}
	if !strings.Contains(e.Error(), "password") {
		t.Fatalf("Error should keep cause for logs: %q", e.Error())
	}
	if !errors.Is(e, cause) {
		t.Fatalf("errors.Is: expected wrapped cause")
	}
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("ingest: %w", MissingField("path"))
	if !IsKind(err, KindMissingField) {
		t.Fatalf("IsKind: expected missing field")
	}
	if IsKind(err, KindStoreWrite) {
		t.Fatalf("IsKind: unexpected store write")
	}
	if IsKind(errors.New("plain"), KindMissingField) {
		t.Fatalf("IsKind: plain error matched")
	}
}

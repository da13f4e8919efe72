package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adam044/ProFormance/internal/errs"
	"github.com/Adam044/ProFormance/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramContext(name, value string) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := echo.New().NewContext(req, httptest.NewRecorder())
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

func TestPathID(t *testing.T) {
	id, err := pathID(paramContext("id", "7f8de4d2-31ab-4b5e-9a9e-2f6d0f1c5a11"), "id")
	require.NoError(t, err)
	assert.Equal(t, "7f8de4d2-31ab-4b5e-9a9e-2f6d0f1c5a11", id)

	// Anything that is not a UUID resolves like a missing record and
	// never reaches the database.
	for _, bad := range []string{"", "abc", "c-1", "7f8de4d2", "1; DROP TABLE clients"} {
		_, err := pathID(paramContext("id", bad), "id")

		var httpErr *errs.HTTPError
		require.ErrorAs(t, err, &httpErr, "id %q", bad)
		assert.Equal(t, http.StatusNotFound, httpErr.Status)
	}
}

func TestScheduleRequestValidate(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	past := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	empty := ""

	tests := []struct {
		name    string
		date    *string
		wantErr string
	}{
		{"no date clears the appointment", nil, ""},
		{"empty date clears the appointment", &empty, ""},
		{"future date", &future, ""},
		{"unparseable date", ptrString("next tuesday"), "must be a valid RFC 3339 timestamp"},
		{"past date", &past, "must be in the future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&ScheduleRequest{Date: tt.date}).Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			var verrs validation.CustomValidationErrors
			require.ErrorAs(t, err, &verrs)
			require.Len(t, verrs, 1)
			assert.Equal(t, "date", verrs[0].Field)
			assert.Equal(t, tt.wantErr, verrs[0].Message)
		})
	}
}

func ptrString(s string) *string {
	return &s
}

package contact_test

import (
	"errors"
	"testing"

	domain "github.com/crmkit/contact-ingest/internal/domain/contact"
)

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		record  domain.Record
		wantErr error
	}{
		{
			name:   "valid",
			record: domain.Record{Name: "Alice", Email: "alice@example.com", Phone: "5551234567"},
		},
		{
			name:    "missing email",
			record:  domain.Record{Name: "Alice", Phone: "5551234567"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "malformed email",
			record:  domain.Record{Name: "Alice", Email: "not-an-email", Phone: "5551234567"},
			wantErr: domain.ErrInvalidEmail,
		},
		{
			name:    "phone too short",
			record:  domain.Record{Name: "Alice", Email: "alice@example.com", Phone: "123"},
			wantErr: domain.ErrInvalidPhone,
		},
		{
			name:    "phone with letters",
			record:  domain.Record{Name: "Alice", Email: "alice@example.com", Phone: "555abc4567"},
			wantErr: domain.ErrInvalidPhone,
		},
		{
			name:    "missing phone",
			record:  domain.Record{Name: "Alice", Email: "alice@example.com"},
			wantErr: domain.ErrInvalidPhone,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.record.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRecordKeyNormalizesEmail(t *testing.T) {
	t.Parallel()

	rec := domain.Record{Email: "  Alice@Example.COM "}
	if got := rec.Key(); got != "alice@example.com" {
		t.Fatalf("unexpected key: %q", got)
	}
}

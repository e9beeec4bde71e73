package auth

import "testing"

func TestParseIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Identifier
		wantErr bool
	}{
		{name: "email is lower-cased", raw: "  Kofi@Example.COM ", want: Identifier{Kind: KindEmail, Value: "kofi@example.com"}},
		{name: "local phone uses default region", raw: "024 123 4567", want: Identifier{Kind: KindPhone, Value: "+233241234567"}},
		{name: "international phone", raw: "+233 24 123 4567", want: Identifier{Kind: KindPhone, Value: "+233241234567"}},
		{name: "bad email", raw: "nobody@", wantErr: true},
		{name: "garbage", raw: "hello", wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdentifier(tt.raw, "GH")
			if tt.wantErr {
				if err != ErrInvalidIdentifier {
					t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMasked(t *testing.T) {
	if got := (Identifier{Kind: KindEmail, Value: "kofi@example.com"}).Masked(); got != "k***@example.com" {
		t.Fatalf("email mask = %q", got)
	}
	if got := (Identifier{Kind: KindPhone, Value: "+233241234567"}).Masked(); got != "*********4567" {
		t.Fatalf("phone mask = %q", got)
	}
}

package language

import (
	"errors"
	"reflect"
	"testing"
)

func TestCombine(t *testing.T) {
	tests := []struct {
		name    string
		codes   []string
		want    string
		wantErr error
	}{
		{name: "single", codes: []string{"eng"}, want: "eng"},
		{name: "default pair", codes: DefaultCodes, want: "tur+eng"},
		{name: "duplicates dropped", codes: []string{"eng", " eng", "deu"}, want: "eng+deu"},
		{name: "empty", codes: nil, wantErr: ErrNoLanguages},
		{name: "blank only", codes: []string{" ", ""}, wantErr: ErrNoLanguages},
		{name: "unknown", codes: []string{"eng", "klingon"}, wantErr: ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Combine(tt.codes)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Combine() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Combine() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Combine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	got := ParseList("tur, eng+deu")
	want := []string{"tur", "eng", "deu"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseList() = %v, want %v", got, want)
	}
}

func TestHints(t *testing.T) {
	got := Hints("tur+chi_sim+xxx")
	want := []string{"tr", "zh"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hints() = %v, want %v", got, want)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	if len(all) != 16 {
		t.Fatalf("expected 16 languages, got %d", len(all))
	}
	all[0].Code = "changed"
	if l, _ := Lookup("tur"); l.Code != "tur" {
		t.Fatal("registry mutated through All()")
	}
	if All()[0].Code != "tur" {
		t.Fatal("All() did not return a copy")
	}
}

package plugin_test

import (
	"errors"
	"testing"

	Mp "github.com/maroda/madrigal/plugin"
	Mpat "github.com/maroda/madrigal/pattern"
)

const testSampleMap = `{
  "_base": "https://samples.example/dave/",
  "heartbeat": ["heartbeat/0.wav", "heartbeat/1.wav"],
  "cocaina": "cocaina.wav",
  "piano": {"c4": "piano/c4.mp3", "a0": "piano/a0.mp3"},
  "remote": "https://elsewhere.example/remote.wav",
  "_comment": "ignored",
  "broken": 12
}`

func TestParseSampleBank(t *testing.T) {
	bank, err := Mp.ParseSampleBank([]byte(testSampleMap), "https://raw.example/strudel.json")
	assertError(t, err, nil)

	t.Run("Lists sounds, skipping metadata and bad entries", func(t *testing.T) {
		names := bank.Names()
		assertInt(t, len(names), 4)
		assertString(t, names[0], "cocaina")
	})

	t.Run("Errors with malformed JSON", func(t *testing.T) {
		_, err := Mp.ParseSampleBank([]byte(`{"bd": [`), "bad.json")
		assertGotError(t, err)
	})
}

func TestSampleBank_Resolve(t *testing.T) {
	bank, err := Mp.ParseSampleBank([]byte(testSampleMap), "")
	assertError(t, err, nil)

	tests := []struct {
		name  string
		sound string
		n     int
		want  string
	}{
		{"single file", "cocaina", 0, "https://samples.example/dave/cocaina.wav"},
		{"list variant", "heartbeat", 1, "https://samples.example/dave/heartbeat/1.wav"},
		{"list wraps", "heartbeat", 3, "https://samples.example/dave/heartbeat/1.wav"},
		{"list wraps negative", "heartbeat", -2, "https://samples.example/dave/heartbeat/0.wav"},
		{"map sorted by key", "piano", 0, "https://samples.example/dave/piano/a0.mp3"},
		{"absolute location", "remote", 0, "https://elsewhere.example/remote.wav"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bank.Resolve(tt.sound, tt.n)
			assertError(t, err, nil)
			assertString(t, got, tt.want)
		})
	}

	t.Run("Unknown sound", func(t *testing.T) {
		_, err := bank.Resolve("overgame", 0)
		var ue *Mpat.UnknownReferenceError
		if !errors.As(err, &ue) || ue.Kind != "sample" {
			t.Errorf("got %v, want UnknownReferenceError for a sample", err)
		}
	})
}

func TestSampleBank_Base(t *testing.T) {
	bank, err := Mp.ParseSampleBank([]byte(`{"bd": "bd.wav"}`), "https://raw.example/user/repo/main/strudel.json")
	assertError(t, err, nil)

	got, err := bank.Resolve("bd", 0)
	assertError(t, err, nil)
	assertString(t, got, "https://raw.example/user/repo/main/bd.wav")
}

func TestSampleBank_Check(t *testing.T) {
	bank, err := Mp.ParseSampleBank([]byte(testSampleMap), "")
	assertError(t, err, nil)

	for _, ok := range []string{"heartbeat", "sawtooth", "square", "gm_epiano1"} {
		assertError(t, bank.Check(ok), nil)
	}

	err = bank.Check("spilltab")
	var ue *Mpat.UnknownReferenceError
	if !errors.As(err, &ue) {
		t.Errorf("got %v, want UnknownReferenceError", err)
	}

	t.Run("Later maps add sounds", func(t *testing.T) {
		err := bank.Load([]byte(`{"spilltab": "spilltab.wav"}`), "https://other.example/strudel.json")
		assertError(t, err, nil)
		assertError(t, bank.Check("spilltab"), nil)
		got, _ := bank.Resolve("spilltab", 0)
		assertString(t, got, "https://other.example/spilltab.wav")
		assertInt(t, len(bank.Sources), 2)
	})
}

func TestSampleBank_Lookup(t *testing.T) {
	bank, err := Mp.ParseSampleBank([]byte(testSampleMap), "")
	assertError(t, err, nil)

	got, err := bank.Lookup("piano.c4")
	assertError(t, err, nil)
	assertString(t, got, "piano/c4.mp3")

	got, err = bank.Lookup("heartbeat.0")
	assertError(t, err, nil)
	assertString(t, got, "heartbeat/0.wav")

	_, err = bank.Lookup("piano")
	assertGotError(t, err)
}

func TestExtractValue(t *testing.T) {
	data := map[string]any{
		"bitcoin": map[string]any{"usd": 111580.0},
		"list":    []any{"a", "b"},
	}

	tests := []struct {
		name    string
		key     string
		want    any
		wantErr bool
	}{
		{"nested key", "bitcoin.usd", 111580.0, false},
		{"array index", "list.1", "b", false},
		{"missing key", "ethereum.usd", nil, true},
		{"index out of range", "list.2", nil, true},
		{"index not a number", "list.x", nil, true},
		{"traverse a leaf", "bitcoin.usd.cents", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mp.ExtractValue(data, tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

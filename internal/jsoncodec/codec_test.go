package jsoncodec

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/gitdocdb/gitdocdb/internal/gitdocerr"
	"github.com/gitdocdb/gitdocdb/internal/types"
)

func TestEncode_SortsKeysAndPinsIDLast(t *testing.T) {
	doc := types.Document{
		"_id":  "prof01",
		"zeta": 1,
		"name": "shirase",
		"age":  26,
	}
	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got := string(out)
	want := "{\n  \"age\": 26,\n  \"name\": \"shirase\",\n  \"zeta\": 1,\n  \"_id\": \"prof01\"\n}"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
	if strings.HasSuffix(got, "\n") {
		t.Fatal("Encode() must not have a trailing newline")
	}
}

func TestEncode_Deterministic(t *testing.T) {
	doc := types.Document{"_id": "a", "b": 1, "a": 2}
	out1, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	out2, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if string(out1) != string(out2) {
		t.Fatalf("Encode() not deterministic: %q vs %q", out1, out2)
	}
}

func TestEncode_RejectsCycle(t *testing.T) {
	cyclic := map[string]any{}
	cyclic["self"] = cyclic
	doc := types.Document{"_id": "x", "nested": cyclic}
	_, err := Encode(doc)
	if !errors.Is(err, gitdocerr.ErrInvalidJSONObject) {
		t.Fatalf("Encode() = %v, want ErrInvalidJSONObject", err)
	}
}

func TestEncode_RejectsBigInt(t *testing.T) {
	doc := types.Document{"_id": "x", "n": big.NewInt(9223372036854775807)}
	_, err := Encode(doc)
	if !errors.Is(err, gitdocerr.ErrInvalidJSONObject) {
		t.Fatalf("Encode() = %v, want ErrInvalidJSONObject", err)
	}
}

func TestEncode_RejectsFunc(t *testing.T) {
	doc := types.Document{"_id": "x", "fn": func() {}}
	_, err := Encode(doc)
	if !errors.Is(err, gitdocerr.ErrInvalidJSONObject) {
		t.Fatalf("Encode() = %v, want ErrInvalidJSONObject", err)
	}
}

func TestEncode_RejectsUnderscoreProperty(t *testing.T) {
	doc := types.Document{"_id": "x", "_secret": 1}
	_, err := Encode(doc)
	if !errors.Is(err, gitdocerr.ErrInvalidPropertyNameInDocument) {
		t.Fatalf("Encode() = %v, want ErrInvalidPropertyNameInDocument", err)
	}
}

func TestDecode_ReattachesID(t *testing.T) {
	doc := types.Document{"_id": "prof01", "name": "shirase"}
	raw, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(raw, "prof01")
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got.ID() != "prof01" || got["name"] != "shirase" {
		t.Fatalf("Decode() = %+v", got)
	}
}

func TestDecode_RejectsMismatchedID(t *testing.T) {
	doc := types.Document{"_id": "prof01", "name": "shirase"}
	raw, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(raw, "someone-else")
	if !errors.Is(err, gitdocerr.ErrCorruptedRepository) {
		t.Fatalf("Decode() = %v, want ErrCorruptedRepository", err)
	}
}

func TestRoundTrip(t *testing.T) {
	doc := types.Document{
		"_id":   "a/b/c",
		"list":  []any{1, 2, "three"},
		"flag":  true,
		"inner": map[string]any{"x": 1.5},
		"empty": nil,
	}
	encoded, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := Decode(encoded, "a/b/c")
	if err != nil {
		t.Fatal(err)
	}
	reencoded, err := Encode(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if string(encoded) != string(reencoded) {
		t.Fatalf("round trip not byte-stable:\n%s\nvs\n%s", encoded, reencoded)
	}
}

func TestExtractID(t *testing.T) {
	raw := []byte(`{"name":"x","_id":"abc"}`)
	if got := ExtractID(raw); got != "abc" {
		t.Fatalf("ExtractID() = %q, want %q", got, "abc")
	}
	if got := ExtractID([]byte(`{"name":"x"}`)); got != "" {
		t.Fatalf("ExtractID() = %q, want empty", got)
	}
}

package qr

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestConfirmURL(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	got := ConfirmURL("https://api.example.com", id)
	want := "https://api.example.com/api/donations/6ba7b810-9dad-11d1-80b4-00c04fd430c8/confirm-pickup"
	if got != want {
		t.Errorf("ConfirmURL() = %q, want %q", got, want)
	}
}

func TestGenerate(t *testing.T) {
	uri, err := Generate("https://api.example.com", uuid.New())
	if err != nil {
		t.Fatalf("Generate() = %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("data uri prefix missing: %q", uri[:32])
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("payload is not a PNG image")
	}
}

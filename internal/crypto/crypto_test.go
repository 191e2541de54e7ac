package crypto

import (
	"strings"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatalf("NewEncryptor() failed: %v", err)
	}

	for _, plaintext := range []string{"", "re_live_abc123", strings.Repeat("x", 4096)} {
		sealed, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt() failed: %v", err)
		}
		if sealed == plaintext && plaintext != "" {
			t.Fatal("ciphertext must differ from plaintext")
		}
		got, err := enc.Decrypt(sealed)
		if err != nil {
			t.Fatalf("Decrypt() failed: %v", err)
		}
		if got != plaintext {
			t.Fatalf("round trip mismatch: got %q", got)
		}
	}
}

func TestNewEncryptorRejectsBadKeys(t *testing.T) {
	t.Parallel()

	if _, err := NewEncryptor(""); err != ErrMissingKey {
		t.Fatalf("empty key: got %v, want ErrMissingKey", err)
	}
	if _, err := NewEncryptor("short"); err != ErrInvalidKey {
		t.Fatalf("short key: got %v, want ErrInvalidKey", err)
	}
}

func TestDecryptRejectsGarbage(t *testing.T) {
	t.Parallel()

	enc, err := NewEncryptor(testKey)
	if err != nil {
		t.Fatalf("NewEncryptor() failed: %v", err)
	}
	if _, err := enc.Decrypt("not-base64!!!"); err == nil {
		t.Fatal("expected error for invalid base64")
	}
	if _, err := enc.Decrypt("YWJj"); err == nil {
		t.Fatal("expected error for truncated ciphertext")
	}
}

package identity

import (
	"encoding/hex"
	"testing"

	"github.com/ZentaChain/zentalk-client/pkg/clienterr"
)

// Hand-computed test vector (salt=1..8, identity=ABCDEFGH, private
// key=00..1f) run through the base32 packer, PBKDF2, and XSalsa20
// steps independently to cross-check the implementation.
const (
	vectorBackup   = "AEBAGBAFAYDQRU2UVNXWPGH52QKWIP56WA6OSNCRDICESFWDP3ENL5AVPEVH7YSEREUJRIOQTYHZT3PT"
	vectorPassword = "hunter2"
	vectorID       = "ABCDEFGH"
	vectorPrivHex  = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

func TestDecodeBackup(t *testing.T) {
	id, priv, err := DecodeBackup(vectorBackup, vectorPassword)
	if err != nil {
		t.Fatalf("DecodeBackup: %v", err)
	}
	if id.String() != vectorID {
		t.Errorf("id = %q, want %q", id.String(), vectorID)
	}
	wantPriv, err := hex.DecodeString(vectorPrivHex)
	if err != nil {
		t.Fatalf("hex.DecodeString: %v", err)
	}
	if string(priv[:]) != string(wantPriv) {
		t.Errorf("private key = %x, want %x", priv, wantPriv)
	}
}

func TestDecodeBackupWithDashes(t *testing.T) {
	dashed := insertDashes(vectorBackup, 4)
	if _, _, err := DecodeBackup(dashed, vectorPassword); err != nil {
		t.Fatalf("DecodeBackup with dashes: %v", err)
	}
}

func TestDecodeBackupWrongPassword(t *testing.T) {
	_, _, err := DecodeBackup(vectorBackup, "wrong password")
	if err == nil {
		t.Fatal("expected error for wrong password")
	}
	if kind, ok := clienterr.Of(err); !ok || kind != clienterr.InvalidBackupOrPassword {
		t.Errorf("expected InvalidBackupOrPassword, got %v", err)
	}
}

func TestDecodeBackupMutatedByte(t *testing.T) {
	for i := 0; i < len(vectorBackup); i++ {
		mutated := mutateChar(vectorBackup, i)
		if mutated == vectorBackup {
			continue
		}
		if _, _, err := DecodeBackup(mutated, vectorPassword); err == nil {
			t.Errorf("mutating char %d silently succeeded", i)
		}
	}
}

func TestDecodeBackupGarbage(t *testing.T) {
	if _, _, err := DecodeBackup("not a valid backup!!", vectorPassword); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func mutateChar(s string, i int) string {
	b := []byte(s)
	orig := b[i]
	next := orig + 1
	if next == 'I' || next == 'O' {
		next++
	}
	if next > 'Z' {
		next = 'A'
	}
	b[i] = next
	return string(b)
}

func insertDashes(s string, every int) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && i%every == 0 {
			out = append(out, '-')
		}
		out = append(out, s[i])
	}
	return string(out)
}

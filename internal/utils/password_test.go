package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !IsArgon2Hash(hash) {
		t.Fatalf("hash attendu au format argon2id, obtenu %q", hash)
	}

	ok, err := VerifyPassword("correct-horse-battery", hash)
	if err != nil {
		t.Fatalf("vérification: %v", err)
	}
	if !ok {
		t.Fatal("le bon mot de passe doit être accepté")
	}

	ok, err = VerifyPassword("mauvais-mot-de-passe", hash)
	if err != nil {
		t.Fatalf("vérification: %v", err)
	}
	if ok {
		t.Fatal("un mauvais mot de passe doit être refusé")
	}
}

func TestVerifyPasswordBcryptLegacy(t *testing.T) {
	// Les comptes migrés de l'ancienne plateforme portent un hash bcrypt
	hash, err := bcrypt.GenerateFromPassword([]byte("ancien-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if !IsBcryptHash(string(hash)) {
		t.Fatalf("hash attendu au format bcrypt, obtenu %q", hash)
	}

	ok, err := VerifyPassword("ancien-secret", string(hash))
	if err != nil {
		t.Fatalf("vérification: %v", err)
	}
	if !ok {
		t.Fatal("le bon mot de passe bcrypt doit être accepté")
	}

	ok, err = VerifyPassword("autre-secret", string(hash))
	if err != nil {
		t.Fatalf("vérification: %v", err)
	}
	if ok {
		t.Fatal("un mauvais mot de passe bcrypt doit être refusé")
	}
}

func TestVerifyPasswordFormatInconnu(t *testing.T) {
	if _, err := VerifyPassword("peu-importe", "hash-sans-format"); err == nil {
		t.Fatal("un hash de format inconnu doit être rejeté")
	}
}

func TestHashFormatPredicates(t *testing.T) {
	if IsArgon2Hash("$2b$10$abcdef") {
		t.Fatal("un hash bcrypt n'est pas un hash argon2")
	}
	if IsBcryptHash("$argon2id$v=19$m=32768,t=1,p=4$salt$hash") {
		t.Fatal("un hash argon2 n'est pas un hash bcrypt")
	}
	if !IsBcryptHash("$2a$10$abcdef") {
		t.Fatal("le préfixe $2a$ est un hash bcrypt")
	}
}

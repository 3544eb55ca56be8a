package webapi

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenStore keeps the API tokens handed out by pairing in a JSON file.
type TokenStore struct {
	filename string

	mutex   sync.Mutex
	storage struct {
		Tokens []string `json:"tokens"`
	}
}

// LoadTokens reads filename. A missing file yields an empty store.
func LoadTokens(filename string) (*TokenStore, error) {
	store := &TokenStore{filename: filename}
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		store.storage.Tokens = make([]string, 0)
		log.Println("Empty token list created")
		return store, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &store.storage); err != nil {
		return nil, fmt.Errorf("token file '%s': %w", filename, err)
	}
	log.Printf("Token list loaded with %d entries\n", len(store.storage.Tokens))
	return store, nil
}

func (s *TokenStore) Verify(token string) bool {
	if token == "" {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, t := range s.storage.Tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(t)) == 1 {
			return true
		}
	}
	return false
}

// Generate creates, stores and returns a new random token.
func (s *TokenStore) Generate() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := fmt.Sprintf("%x", b)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.storage.Tokens = append(s.storage.Tokens, token)
	if err := s.save(); err != nil {
		s.storage.Tokens = s.storage.Tokens[:len(s.storage.Tokens)-1]
		return "", err
	}
	log.Println("New token added to token storage")
	return token, nil
}

// save must be called with mutex held.
func (s *TokenStore) save() error {
	data, err := json.MarshalIndent(s.storage, "", "\t")
	if err != nil {
		return fmt.Errorf("could not encode token storage: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.filename), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(s.filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write tokens file: %w", err)
	}
	return nil
}

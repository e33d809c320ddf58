package google

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type TokenRepositoryStub struct {
	mu     sync.Mutex
	nonces map[string]uuid.UUID
	tokens map[uuid.UUID]*oauth2.Token
}

func NewTokenRepositoryStub() *TokenRepositoryStub {
	return &TokenRepositoryStub{
		nonces: make(map[string]uuid.UUID),
		tokens: make(map[uuid.UUID]*oauth2.Token),
	}
}

func (s *TokenRepositoryStub) StoreNonce(_ context.Context, memberId uuid.UUID, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for n, m := range s.nonces {
		if m == memberId {
			delete(s.nonces, n)
		}
	}
	delete(s.tokens, memberId)
	s.nonces[nonce] = memberId
	return nil
}

func (s *TokenRepositoryStub) StoreToken(_ context.Context, nonce string, token *oauth2.Token) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	memberId, ok := s.nonces[nonce]
	if !ok {
		return false, nil
	}
	s.tokens[memberId] = token
	return true, nil
}

func (s *TokenRepositoryStub) GetToken(_ context.Context, memberId uuid.UUID) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[memberId], nil
}

func (s *TokenRepositoryStub) DeleteToken(_ context.Context, memberId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, memberId)
	return nil
}

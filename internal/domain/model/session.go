package model

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

// Session is the tipper's wallet identity as resolved at startup.
type Session struct {
	Account    string
	Address    string
	PublicKey  common.Address
	PrivateKey *ecdsa.PrivateKey
	ChainID    int
}

func (s *Session) CanSign() bool {
	return s != nil && s.PrivateKey != nil
}

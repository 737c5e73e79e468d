package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const SignatureHeader = "X-Signature"

var ErrInvalidSignature = errors.New("invalid signature")

// Signer computes and checks HMAC-SHA256 signatures over request bodies.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

func (s *Signer) Sign(data []byte) string {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	signature := mac.Sum(nil)
	return hex.EncodeToString(signature)
}

// Verify accepts the hex signature with or without a "sha256=" prefix.
func (s *Signer) Verify(data []byte, signature string) error {
	signature = strings.TrimPrefix(strings.TrimSpace(signature), "sha256=")
	received, err := hex.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: not hex encoded", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), received) {
		s.logger.Warn("Signature verification failed",
			slog.Int("body_bytes", len(data)))
		return ErrInvalidSignature
	}
	return nil
}

// Package otp handles one-time password generation, expiry, and delivery.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sender abstracts the SMS gateway that delivers codes to a mobile number.
type Sender interface {
	Send(ctx context.Context, mobile, code string) error
}

// Generator produces numeric codes and their expiry timestamps.
type Generator struct {
	length int
	ttl    time.Duration
}

// NewGenerator creates a generator for codes of the given length that expire
// ttl after issuance.
func NewGenerator(length int, ttl time.Duration) *Generator {
	return &Generator{length: length, ttl: ttl}
}

// Generate draws each digit independently from a secure random source.
func (g *Generator) Generate() (string, error) {
	if g.length < 4 || g.length > 10 {
		return "", errors.New("otp length out of range")
	}

	var b strings.Builder
	b.Grow(g.length)

	ten := big.NewInt(10)
	for i := 0; i < g.length; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// ExpiryFrom returns the instant a code issued at now stops verifying.
func (g *Generator) ExpiryFrom(now time.Time) time.Time {
	return now.Add(g.ttl)
}

// LogSender is the development gateway: it logs the code instead of sending
// an SMS and always reports success.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a Sender that writes codes to the log.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger.Named("otp-sender")}
}

// Send logs the code. It never fails.
func (s *LogSender) Send(_ context.Context, mobile, code string) error {
	s.logger.Info("mock OTP delivery",
		zap.String("mobile", mobile),
		zap.String("code", code))
	return nil
}

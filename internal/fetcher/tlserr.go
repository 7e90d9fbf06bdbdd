package fetcher

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"strings"
)

// IsCertificateError reports whether err came from a failed TLS handshake
// or certificate verification rather than from an unreachable host.
func IsCertificateError(err error) bool {
	if err == nil {
		return false
	}
	var (
		verifyErr  *tls.CertificateVerificationError
		unknownErr x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		recordErr  tls.RecordHeaderError
		alertErr   tls.AlertError
	)
	switch {
	case errors.As(err, &verifyErr), errors.As(err, &unknownErr),
		errors.As(err, &hostErr), errors.As(err, &invalidErr),
		errors.As(err, &recordErr), errors.As(err, &alertErr):
		return true
	}
	// Wrapped errors lose their type across some transports.
	msg := err.Error()
	return strings.Contains(msg, "x509: ") || strings.Contains(msg, "tls: ")
}

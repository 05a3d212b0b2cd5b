package transport

import (
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/rs/zerolog"
)

// BisectValid returns the maximal subsequence of items accepted by the
// group-validity predicate. The batch is validated as a whole first; on
// failure it is split in half and each half validated recursively,
// accumulating the valid leaves. Worst case (one bad element) costs
// O(n log n) predicate calls, best case one.
//
// Note: for inputs whose validity is order- or dependency-sensitive, a leaf
// that validates alone may still be useless without a sibling this function
// dropped. Callers own that risk.
func BisectValid[T any](items []T, valid func([]T) bool) []T {
	if len(items) == 0 {
		return nil
	}
	if valid(items) {
		return items
	}
	if len(items) == 1 {
		return nil
	}
	mid := len(items) / 2
	out := BisectValid(items[:mid], valid)
	return append(out, BisectValid(items[mid:], valid)...)
}

// LoadTrustBundle reads the custom CA bundle named by AWS_CA_BUNDLE or
// SSL_CERT_FILE and returns a pool holding the system roots plus every
// usable certificate from the bundle. Returns nil when no bundle is
// configured or nothing in it is usable; callers then keep default roots.
func LoadTrustBundle(logger zerolog.Logger) *x509.CertPool {
	path := os.Getenv("AWS_CA_BUNDLE")
	if path == "" {
		path = os.Getenv("SSL_CERT_FILE")
	}
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the user's environment
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("cannot read CA bundle, using default roots")
		return nil
	}

	blocks := pemCertificates(data)
	if len(blocks) == 0 {
		logger.Warn().Str("path", path).Msg("no certificates in CA bundle, using default roots")
		return nil
	}

	usable := BisectValid(blocks, certificatesParse)
	if len(usable) < len(blocks) {
		logger.Debug().
			Int("total", len(blocks)).
			Int("usable", len(usable)).
			Str("path", path).
			Msg("filtered unusable certificates from CA bundle")
	}
	if len(usable) == 0 {
		logger.Warn().Str("path", path).Msg("no usable certificates in CA bundle, using default roots")
		return nil
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, der := range usable {
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			continue
		}
		pool.AddCert(cert)
	}
	logger.Debug().Int("certificates", len(usable)).Str("path", path).Msg("loaded custom CA bundle")
	return pool
}

// pemCertificates collects the DER bytes of every CERTIFICATE block.
func pemCertificates(data []byte) [][]byte {
	var blocks [][]byte
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return blocks
		}
		if block.Type == "CERTIFICATE" {
			blocks = append(blocks, block.Bytes)
		}
	}
}

// certificatesParse is the group-validity predicate for trust bundles:
// the batch is valid when every certificate in it parses.
func certificatesParse(blocks [][]byte) bool {
	for _, der := range blocks {
		if _, err := x509.ParseCertificate(der); err != nil {
			return false
		}
	}
	return true
}

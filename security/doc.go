// Package security builds client TLS settings for remote storage backends,
// such as an S3-compatible endpoint signed by a private CA.
//
//	cfg := security.TLSConfig{CAFile: "/etc/minio/ca.pem"}
//	tlsCfg, err := cfg.Build() // nil, nil when nothing is set
package security

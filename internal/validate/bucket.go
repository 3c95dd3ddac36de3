// Package validate implements the bucket-name and object-key naming rules.
package validate

import (
	"net"
	"regexp"
	"strings"
)

// Result carries either a passing validation or the single human message
// identifying the first rule that failed.
type Result struct {
	OK     bool
	Reason string
}

func ok() Result { return Result{OK: true} }

func fail(reason string) Result { return Result{OK: false, Reason: reason} }

var ipv4GroupRe = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

var bucketCharsRe = regexp.MustCompile(`^[a-z0-9.-]+$`)

// BucketName validates a bucket name against S3-style naming rules:
// length 3-63, characters from [a-z0-9.-], first/last alphanumeric, no
// "..", not an IPv4 literal, no "xn--" prefix, no "-s3alias"/"--ol-s3"
// suffix.
func BucketName(name string) Result {
	if len(name) < 3 || len(name) > 63 {
		return fail("bucket name must be between 3 and 63 characters")
	}
	if !bucketCharsRe.MatchString(name) {
		return fail("bucket name may only contain lowercase letters, digits, dots, and hyphens")
	}
	if !isAlphanumeric(name[0]) || !isAlphanumeric(name[len(name)-1]) {
		return fail("bucket name must start and end with a letter or digit")
	}
	if strings.Contains(name, "..") {
		return fail("bucket name must not contain consecutive periods")
	}
	if isIPv4Literal(name) {
		return fail("bucket name must not be formatted as an IP address")
	}
	if strings.HasPrefix(name, "xn--") {
		return fail("bucket name must not start with the reserved prefix xn--")
	}
	if strings.HasSuffix(name, "-s3alias") || strings.HasSuffix(name, "--ol-s3") {
		return fail("bucket name must not end with a reserved suffix")
	}
	return ok()
}

func isAlphanumeric(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z')
}

// isIPv4Literal rejects both genuinely parseable dotted-quad addresses and
// four-group numeric strings net.ParseIP would reject for being out of
// range (e.g. "999.999.999.999") but that still read as an IP literal.
func isIPv4Literal(name string) bool {
	if ip := net.ParseIP(name); ip != nil && ip.To4() != nil {
		return true
	}
	return ipv4GroupRe.MatchString(name)
}

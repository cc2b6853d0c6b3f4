package logger

import "strings"

// RedactEmail masks an email address for safe logging.
// "jane.doe@example.com" → "ja***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactIP masks the host portion of a listener IP address.
// "203.0.113.42" → "203.0.113.xxx"; IPv6 addresses keep only the first two
// groups: "2001:db8::1" → "2001:db8::xxxx"
func RedactIP(ip string) string {
	if strings.Contains(ip, ":") {
		groups := strings.Split(ip, ":")
		if len(groups) < 2 {
			return "::xxxx"
		}
		return groups[0] + ":" + groups[1] + "::xxxx"
	}
	octets := strings.Split(ip, ".")
	if len(octets) != 4 {
		return "x.x.x.x"
	}
	return strings.Join(octets[:3], ".") + ".xxx"
}
